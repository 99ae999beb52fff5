package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Template is a saved encode preset. ResCRF, when set, carries a per
// resolution CRF and wins over the single CRF value.
type Template struct {
	Name          string            `json:"name"`
	Resolutions   []string          `json:"res"`
	ResCRF        map[string]string `json:"res_crf,omitempty"`
	CRF           string            `json:"crf"`
	Audio         string            `json:"audio"`
	Mode          string            `json:"mode"`
	FontSize      int               `json:"font"`
	MarginV       int               `json:"margin"`
	CustomBitrate string            `json:"custom_bitrate,omitempty"`
}

// Templates is the keyed catalogue of encode presets. Keys are t1, t2, ...
// and the first free slot is reused after a delete.
type Templates struct {
	mu      sync.Mutex
	path    string
	entries map[string]Template
}

// OpenTemplates loads the catalogue; missing file yields an empty one.
func OpenTemplates(path string) (*Templates, error) {
	t := &Templates{path: path, entries: make(map[string]Template)}
	if _, err := loadJSON(path, &t.entries); err != nil {
		return nil, err
	}
	return t, nil
}

// Add stores a template under the first free t<n> key and returns the key.
func (t *Templates) Add(tpl Template) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := t.freeKeyLocked()
	t.entries[key] = tpl
	return key, saveJSON(t.path, t.entries)
}

func (t *Templates) freeKeyLocked() string {
	for n := 1; ; n++ {
		key := "t" + strconv.Itoa(n)
		if _, ok := t.entries[key]; !ok {
			return key
		}
	}
}

// Get returns a template by key.
func (t *Templates) Get(key string) (Template, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tpl, ok := t.entries[key]
	return tpl, ok
}

// Delete removes a template by key.
func (t *Templates) Delete(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[key]; !ok {
		return fmt.Errorf("template %s not found", key)
	}
	delete(t.entries, key)
	return saveJSON(t.path, t.entries)
}

// List returns keys sorted by slot number with their templates.
func (t *Templates) List() ([]string, []Template) {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return slotNum(keys[i]) < slotNum(keys[j])
	})
	tpls := make([]Template, len(keys))
	for i, k := range keys {
		tpls[i] = t.entries[k]
	}
	return keys, tpls
}

func slotNum(key string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(key, "t"))
	return n
}
