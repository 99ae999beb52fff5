package progress

import (
	"sync"
	"time"
)

// HostState is the lifecycle of one host inside a fanout.
type HostState string

const (
	HostPending HostState = "pending"
	HostRunning HostState = "running"
	HostSuccess HostState = "success"
	HostFailed  HostState = "failed"
	HostSkipped HostState = "skipped"
)

// DownloadState is the download phase of the dashboard.
type DownloadState struct {
	Percent    float64
	TotalBytes int64
	Speed      string
	ETA        string
}

// EncodeState is one resolution's row on the dashboard.
type EncodeState struct {
	Resolution string
	Status     string // waiting / pass 1 / encoding / done / failed
	Percent    float64
	ETA        string
}

// HostUpload is one host's row inside a fanout.
type HostUpload struct {
	Host   string
	State  HostState
	URL    string
	Reason string // set for skipped/failed
}

// Snapshot is the mutable dashboard state for the active job. Each phase
// writes its own keys; the reporter loop and the HTTP API read copies.
type Snapshot struct {
	mu sync.Mutex

	jobID    string
	filename string
	kind     string
	stage    Stage
	started  time.Time

	download DownloadState
	encodes  []EncodeState
	uploads  map[string][]HostUpload // resolution -> host rows
}

// NewSnapshot starts a snapshot for one job with its planned resolutions.
func NewSnapshot(jobID, filename, kind string, resolutions []string) *Snapshot {
	s := &Snapshot{
		jobID:    jobID,
		filename: filename,
		kind:     kind,
		stage:    StageQueued,
		started:  time.Now(),
		uploads:  make(map[string][]HostUpload),
	}
	for _, r := range resolutions {
		s.encodes = append(s.encodes, EncodeState{Resolution: r, Status: "waiting"})
	}
	return s
}

// SetStage records the active phase.
func (s *Snapshot) SetStage(st Stage) {
	s.mu.Lock()
	s.stage = st
	s.mu.Unlock()
}

// SetDownload updates the download phase fields.
func (s *Snapshot) SetDownload(d DownloadState) {
	s.mu.Lock()
	s.download = d
	s.mu.Unlock()
}

// SetEncode updates one resolution's row.
func (s *Snapshot) SetEncode(res, status string, percent float64, eta string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.encodes {
		if s.encodes[i].Resolution == res {
			s.encodes[i].Status = status
			s.encodes[i].Percent = percent
			s.encodes[i].ETA = eta
			return
		}
	}
	s.encodes = append(s.encodes, EncodeState{Resolution: res, Status: status, Percent: percent, ETA: eta})
}

// SetUpload updates one host row of one resolution's fanout.
func (s *Snapshot) SetUpload(res, host string, state HostState, url, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.uploads[res]
	for i := range rows {
		if rows[i].Host == host {
			rows[i].State = state
			rows[i].URL = url
			rows[i].Reason = reason
			return
		}
	}
	s.uploads[res] = append(rows, HostUpload{Host: host, State: state, URL: url, Reason: reason})
}

// View is an immutable copy of the snapshot for rendering.
type View struct {
	JobID    string
	Filename string
	Kind     string
	Stage    Stage
	Elapsed  time.Duration
	Download DownloadState
	Encodes  []EncodeState
	Uploads  map[string][]HostUpload
}

// View returns a deep copy safe to render without holding the lock.
func (s *Snapshot) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		JobID:    s.jobID,
		Filename: s.filename,
		Kind:     s.kind,
		Stage:    s.stage,
		Elapsed:  time.Since(s.started),
		Download: s.download,
		Encodes:  append([]EncodeState(nil), s.encodes...),
		Uploads:  make(map[string][]HostUpload, len(s.uploads)),
	}
	for res, rows := range s.uploads {
		v.Uploads[res] = append([]HostUpload(nil), rows...)
	}
	return v
}

// Attach returns a Reporter that folds pipeline events into this
// snapshot, so the downloader and encoder stay snapshot-agnostic.
func (s *Snapshot) Attach() Reporter {
	return &snapshotReporter{snap: s}
}

type snapshotReporter struct {
	snap *Snapshot
}

func (r *snapshotReporter) Update(u Update) {
	switch u.Stage {
	case StageDownloading:
		d := DownloadState{Percent: u.Percent}
		if u.Bytes != nil {
			d.TotalBytes = *u.Bytes
		}
		if u.Speed != nil {
			d.Speed = *u.Speed
		}
		if u.ETA != nil {
			d.ETA = u.ETA.String()
		}
		r.snap.SetStage(StageDownloading)
		r.snap.SetDownload(d)
	case StageEncoding:
		eta := ""
		if u.ETA != nil {
			eta = u.ETA.String()
		}
		status := u.Message
		if status == "" {
			status = "encoding"
		}
		r.snap.SetStage(StageEncoding)
		r.snap.SetEncode(u.Resolution, status, u.Percent, eta)
	case StageCompleted, StageError, StageSuspended, StageFinalizing:
		r.snap.SetStage(u.Stage)
	}
}

func (r *snapshotReporter) Log(Log)       {}
func (r *snapshotReporter) Result(Result) {}
