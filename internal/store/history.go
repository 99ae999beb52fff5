package store

import "sync"

// ResultLinks maps host name to its resolved URL; nil entries mean the
// host did not produce one.
type ResultLinks map[string]string

// ResultMeta is the measurement block of a history record.
type ResultMeta struct {
	Duration   float64 `json:"duration"`
	InputSize  int64   `json:"input_size"`
	OutputSize int64   `json:"output_size"`
	EncodeTime float64 `json:"encode_time"`
}

// ResultRecord is one completed encode with its per-host URLs.
type ResultRecord struct {
	Filename  string      `json:"filename"`
	Quality   string      `json:"quality"`
	Timestamp string      `json:"timestamp"`
	Links     ResultLinks `json:"links"`
	Meta      ResultMeta  `json:"meta"`
}

// History is the append-only record of completed encodes.
type History struct {
	mu      sync.Mutex
	path    string
	records []ResultRecord
}

// OpenHistory loads the history file; missing file yields an empty history.
func OpenHistory(path string) (*History, error) {
	h := &History{path: path}
	if _, err := loadJSON(path, &h.records); err != nil {
		return nil, err
	}
	return h, nil
}

// Append adds a record and persists.
func (h *History) Append(r ResultRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return saveJSON(h.path, h.records)
}

// All returns a copy of every record in append order.
func (h *History) All() []ResultRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ResultRecord(nil), h.records...)
}

// Clear wipes the history.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
	return saveJSON(h.path, []ResultRecord{})
}
