// Package queue holds the FIFO job queue, the single worker that drains
// it, and the suspension registry for jobs parked waiting on a subtitle.
package queue

import (
	"sync"

	"encbot/internal/job"
)

// Queue is a FIFO of pending jobs. One worker consumes it; any goroutine
// may submit.
type Queue struct {
	mu    sync.Mutex
	items []*job.Job
	wake  chan struct{}
}

func New() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Submit appends a job and returns its 1-based queue position.
func (q *Queue) Submit(j *job.Job) int {
	q.mu.Lock()
	q.items = append(q.items, j)
	pos := len(q.items)
	q.mu.Unlock()
	q.signal()
	return pos
}

// PushFront puts a job at the head of the queue. Used when a suspended
// job resumes: it had already waited its turn.
func (q *Queue) PushFront(j *job.Job) {
	q.mu.Lock()
	q.items = append([]*job.Job{j}, q.items...)
	q.mu.Unlock()
	q.signal()
}

// Pop removes and returns the head, or nil when empty.
func (q *Queue) Pop() *job.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	j := q.items[0]
	q.items = q.items[1:]
	return j
}

// Clear drops every pending job and returns them so the caller can
// finalise each as cancelled. The running job is not affected.
func (q *Queue) Clear() []*job.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := q.items
	q.items = nil
	return dropped
}

// Len reports the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns the pending jobs in order.
func (q *Queue) Snapshot() []*job.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*job.Job(nil), q.items...)
}

// Wake is the channel the worker blocks on when the queue is empty.
func (q *Queue) Wake() <-chan struct{} { return q.wake }

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
