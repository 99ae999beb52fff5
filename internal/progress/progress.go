// Package progress carries live pipeline state: per-event updates emitted
// by the downloader and encoder, and the dashboard snapshot the reporter
// loop renders into the status message.
package progress

import "time"

// Stage identifies a high-level step in the pipeline.
type Stage string

const (
	StageQueued      Stage = "queued"
	StageDownloading Stage = "downloading"
	StageEncoding    Stage = "encoding"
	StageUploading   Stage = "uploading"
	StageFinalizing  Stage = "finalizing"
	StageCompleted   Stage = "completed"
	StageSuspended   Stage = "suspended"
	StageError       Stage = "error"
)

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

// Update conveys progress or stage changes for a job.
// Percent is 0..100 when known; negative means unknown.
type Update struct {
	JobID      string
	Stage      Stage
	Resolution string // set for encode and upload stages
	Percent    float64

	ETA     *time.Duration // optional
	Bytes   *int64         // optional cumulative bytes
	Speed   *string        // optional, e.g. "2.5MiB/s" or "1.2x"
	Message string         // short human-friendly status line
}

// Log is a raw subprocess output line associated with a job.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted once per job when it completes or fails.
type Result struct {
	JobID      string
	OutputPath string
	Bytes      int64
	Err        error // nil on success
}

// Reporter is implemented by any observer of pipeline events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}

// Nop is a Reporter that discards everything.
type Nop struct{}

func (Nop) Update(Update) {}
func (Nop) Log(Log)       {}
func (Nop) Result(Result) {}
