package queue

import (
	"sync"

	"encbot/internal/job"
)

// Suspended is one parked job waiting for a subtitle upload. The download
// is kept so the resume skips straight to encoding.
type Suspended struct {
	Job     *job.Job
	File    string // downloaded input, preserved across the suspension
	CacheID string
}

// SuspensionRegistry parks jobs per user in FIFO order; an uploaded .srt
// resumes the oldest one.
type SuspensionRegistry struct {
	mu     sync.Mutex
	byUser map[int64][]Suspended
}

func NewSuspensionRegistry() *SuspensionRegistry {
	return &SuspensionRegistry{byUser: make(map[int64][]Suspended)}
}

// Park appends a suspension for the job's owner.
func (r *SuspensionRegistry) Park(s Suspended) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[s.Job.Owner] = append(r.byUser[s.Job.Owner], s)
}

// Resume pops the user's oldest suspension, attaches the subtitle and the
// preserved download, and returns the job ready for the queue head.
func (r *SuspensionRegistry) Resume(user int64, srtPath string) (*job.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byUser[user]
	if len(list) == 0 {
		return nil, false
	}
	s := list[0]
	r.byUser[user] = list[1:]
	s.Job.SubtitlePath = srtPath
	s.Job.DownloadedFile = s.File
	s.Job.CacheID = s.CacheID
	return s.Job, true
}

// Count reports how many jobs the user has parked.
func (r *SuspensionRegistry) Count(user int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser[user])
}
