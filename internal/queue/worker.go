package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"encbot/internal/job"
	"encbot/internal/logging"
	"encbot/internal/util/format"
)

// State is the worker's lifecycle.
type State string

const (
	Idle    State = "idle"
	Running State = "running"
)

// RunFunc executes one job to a terminal state.
type RunFunc func(ctx context.Context, j *job.Job) job.State

// Worker drains the queue one job at a time. Job order is strict FIFO;
// there is exactly one worker per process.
type Worker struct {
	queue *Queue
	run   RunFunc
	// notify delivers the batch summary to the owner of the last job
	// when the queue drains.
	notify func(owner int64, text string)

	mu         sync.Mutex
	state      State
	current    *job.Job
	batchStart time.Time
	batchCount int
}

func NewWorker(q *Queue, run RunFunc, notify func(owner int64, text string)) *Worker {
	if notify == nil {
		notify = func(int64, string) {}
	}
	return &Worker{queue: q, run: run, notify: notify, state: Idle}
}

// Start blocks draining the queue until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	log := logging.WithComponent("worker")
	for {
		j := w.queue.Pop()
		if j == nil {
			select {
			case <-ctx.Done():
				return
			case <-w.queue.Wake():
				continue
			}
		}

		w.mu.Lock()
		if w.batchCount == 0 {
			w.batchStart = time.Now()
		}
		w.state = Running
		w.current = j
		w.mu.Unlock()

		final := w.run(ctx, j)
		log.Info().Str("job", j.ID).Str("kind", string(j.Kind)).
			Str("state", string(final)).Msg("job finished")

		w.mu.Lock()
		w.state = Idle
		w.current = nil
		// Suspended jobs re-enter the queue later; they do not count
		// toward the batch.
		if final != job.StateSuspended {
			w.batchCount++
		}
		drained := w.queue.Len() == 0
		count := w.batchCount
		elapsed := time.Since(w.batchStart)
		if drained && count > 0 {
			w.batchCount = 0
		}
		w.mu.Unlock()

		if drained && count > 0 {
			w.notify(j.Owner, batchSummary(count, elapsed))
		}
	}
}

// Status reports the worker state, the running job (nil when idle), and
// the queue depth.
func (w *Worker) Status() (State, *job.Job, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, w.current, w.queue.Len()
}

// Current returns the running job, or nil.
func (w *Worker) Current() *job.Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func batchSummary(count int, elapsed time.Duration) string {
	unit := "jobs"
	if count == 1 {
		unit = "job"
	}
	return fmt.Sprintf("✅ All jobs done: %d %s in %s", count, unit, format.Clock(elapsed))
}
