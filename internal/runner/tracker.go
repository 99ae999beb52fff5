package runner

import (
	"sync"
	"time"

	"encbot/internal/procgroup"
)

// Tracker records which processes belong to which owner so that a cancel
// request can kill everything that user started.
type Tracker struct {
	mu    sync.Mutex
	procs map[int64]map[int]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{procs: make(map[int64]map[int]struct{})}
}

func (t *Tracker) register(owner int64, pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.procs[owner]
	if !ok {
		set = make(map[int]struct{})
		t.procs[owner] = set
	}
	set[pid] = struct{}{}
}

func (t *Tracker) unregister(owner int64, pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if set, ok := t.procs[owner]; ok {
		delete(set, pid)
		if len(set) == 0 {
			delete(t.procs, owner)
		}
	}
}

// Active returns how many tracked processes the owner currently has.
func (t *Tracker) Active(owner int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.procs[owner])
}

// KillAll group-kills every tracked process of the owner and returns how
// many kills were attempted. Entries are removed by the owning runner when
// the processes exit.
func (t *Tracker) KillAll(owner int64) int {
	t.mu.Lock()
	pids := make([]int, 0, len(t.procs[owner]))
	for pid := range t.procs[owner] {
		pids = append(pids, pid)
	}
	t.mu.Unlock()

	for _, pid := range pids {
		_ = procgroup.KillGroup(pid, 3*time.Second, 5*time.Second)
	}
	return len(pids)
}
