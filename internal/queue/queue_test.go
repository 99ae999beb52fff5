package queue

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"encbot/internal/job"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := New()
	a := job.New(1, job.KindEncode)
	b := job.New(1, job.KindEncode)
	c := job.New(1, job.KindLeech)

	if pos := q.Submit(a); pos != 1 {
		t.Fatalf("first position = %d", pos)
	}
	if pos := q.Submit(b); pos != 2 {
		t.Fatalf("second position = %d", pos)
	}
	q.Submit(c)

	for i, want := range []*job.Job{a, b, c} {
		got := q.Pop()
		if got != want {
			t.Fatalf("pop %d = %v, want %v", i, got, want)
		}
	}
	if q.Pop() != nil {
		t.Fatal("pop on empty queue returned a job")
	}
}

func TestQueuePushFrontJumpsLine(t *testing.T) {
	q := New()
	a := job.New(1, job.KindEncode)
	b := job.New(2, job.KindEncode)
	resumed := job.New(3, job.KindEncode)

	q.Submit(a)
	q.Submit(b)
	q.PushFront(resumed)

	if got := q.Pop(); got != resumed {
		t.Fatalf("head = %v, want resumed job", got)
	}
	if got := q.Pop(); got != a {
		t.Fatalf("second = %v, want first submitted", got)
	}
}

func TestQueueClearReturnsPending(t *testing.T) {
	q := New()
	q.Submit(job.New(1, job.KindEncode))
	q.Submit(job.New(1, job.KindEncode))

	dropped := q.Clear()
	if len(dropped) != 2 {
		t.Fatalf("cleared %d jobs, want 2", len(dropped))
	}
	if q.Len() != 0 {
		t.Fatal("queue not empty after clear")
	}
}

func TestWorkerRunsJobsInOrderAndSummarises(t *testing.T) {
	q := New()
	var mu sync.Mutex
	var ran []string
	var summaries []string
	done := make(chan struct{}, 8)

	run := func(ctx context.Context, j *job.Job) job.State {
		mu.Lock()
		ran = append(ran, j.ID)
		mu.Unlock()
		done <- struct{}{}
		return job.StateDone
	}
	notify := func(owner int64, text string) {
		mu.Lock()
		summaries = append(summaries, text)
		mu.Unlock()
	}

	w := NewWorker(q, run, notify)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	a := job.New(1, job.KindEncode)
	b := job.New(1, job.KindEncode)
	q.Submit(a)
	q.Submit(b)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not drain the queue")
		}
	}
	// Give the worker a beat to emit the summary after the last job.
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(summaries)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no batch summary after drain")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if ran[0] != a.ID || ran[1] != b.ID {
		t.Fatalf("run order = %v", ran)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %v, want exactly one", summaries)
	}
	if !strings.Contains(summaries[0], "2 jobs") {
		t.Fatalf("summary = %q", summaries[0])
	}
}

func TestWorkerSuspendedJobNotCounted(t *testing.T) {
	q := New()
	var mu sync.Mutex
	var summaries []string
	done := make(chan struct{}, 1)

	run := func(ctx context.Context, j *job.Job) job.State {
		defer func() { done <- struct{}{} }()
		return job.StateSuspended
	}
	w := NewWorker(q, run, func(owner int64, text string) {
		mu.Lock()
		summaries = append(summaries, text)
		mu.Unlock()
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	q.Submit(job.New(1, job.KindEncode))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(summaries) != 0 {
		t.Fatalf("suspended-only batch produced summary %v", summaries)
	}
}

func TestWorkerStatus(t *testing.T) {
	q := New()
	started := make(chan struct{})
	release := make(chan struct{})
	run := func(ctx context.Context, j *job.Job) job.State {
		close(started)
		<-release
		return job.StateDone
	}
	w := NewWorker(q, run, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	st, cur, depth := w.Status()
	if st != Idle || cur != nil || depth != 0 {
		t.Fatalf("idle status = %v %v %d", st, cur, depth)
	}

	j := job.New(1, job.KindEncode)
	q.Submit(j)
	<-started

	st, cur, _ = w.Status()
	if st != Running || cur == nil || cur.ID != j.ID {
		t.Fatalf("running status = %v %v", st, cur)
	}
	close(release)
}

func TestSuspensionRegistryFIFOPerUser(t *testing.T) {
	r := NewSuspensionRegistry()
	j1 := job.New(7, job.KindEncode)
	j2 := job.New(7, job.KindEncode)
	other := job.New(8, job.KindEncode)

	r.Park(Suspended{Job: j1, File: "/tmp/a.mkv", CacheID: "1"})
	r.Park(Suspended{Job: j2, File: "/tmp/b.mkv", CacheID: "2"})
	r.Park(Suspended{Job: other, File: "/tmp/c.mkv", CacheID: "3"})

	got, ok := r.Resume(7, "/tmp/sub.srt")
	if !ok || got != j1 {
		t.Fatalf("resume = %v %v, want oldest of user 7", got, ok)
	}
	if got.SubtitlePath != "/tmp/sub.srt" || got.DownloadedFile != "/tmp/a.mkv" || got.CacheID != "1" {
		t.Fatalf("resumed job = %+v", got)
	}
	if r.Count(7) != 1 {
		t.Fatalf("user 7 count = %d", r.Count(7))
	}
	if r.Count(8) != 1 {
		t.Fatalf("user 8 count = %d", r.Count(8))
	}

	if _, ok := r.Resume(9, "x.srt"); ok {
		t.Fatal("resume for user with nothing parked succeeded")
	}
}

func TestBatchSummaryFormat(t *testing.T) {
	got := batchSummary(1, 65*time.Second)
	if !strings.Contains(got, "1 job in 1:05") {
		t.Fatalf("summary = %q", got)
	}
	got = batchSummary(3, 3*time.Hour+2*time.Minute+9*time.Second)
	if !strings.Contains(got, "3 jobs in 3:02:09") {
		t.Fatalf("summary = %q", got)
	}
}
