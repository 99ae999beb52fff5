// Package job defines the state record for one user request and its
// terminal states.
package job

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"encbot/internal/encoder"
	"encbot/internal/transport"
)

// Kind is the pipeline a job runs through.
type Kind string

const (
	KindEncode    Kind = "encode"
	KindLeech     Kind = "leech"
	KindConvert   Kind = "convert"
	KindMirror    Kind = "mirror"    // Drive-link ingest to FilePress
	KindMultiHost Kind = "multihost" // download then fixed host subset
)

// State is a job's terminal state.
type State string

const (
	StateDone      State = "done"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
	StateSuspended State = "suspended"
)

// Job is mutated only by the worker that owns it; the cancellation flag is
// shared read-only with detached fanouts.
type Job struct {
	ID    string
	Owner int64
	Kind  Kind

	URL            string // source URL; empty when re-encoding from cache
	CacheID        string // raw-cache id the input was registered under
	Filename       string // working path the download lands at
	RealName       string // display name used for output naming
	DownloadedFile string // set when the download phase can be skipped

	Recipe       encoder.Recipe
	SubtitlePath string // external subtitle; empty means embedded-auto

	StatusMsg transport.MessageRef
	Submitted time.Time

	cancelled atomic.Bool
}

// New creates a job with a fresh id.
func New(owner int64, kind Kind) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Owner:     owner,
		Kind:      kind,
		Submitted: time.Now(),
	}
}

// Cancel sets the cancellation flag. Idempotent.
func (j *Job) Cancel() {
	j.cancelled.Store(true)
}

// Cancelled reports whether the job was cancelled.
func (j *Job) Cancelled() bool {
	return j.cancelled.Load()
}
