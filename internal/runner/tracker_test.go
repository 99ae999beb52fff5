package runner

import "testing"

func TestTrackerRegisterUnregister(t *testing.T) {
	tr := NewTracker()
	tr.register(100, 4242)
	tr.register(100, 4243)
	tr.register(200, 9999)

	if got := tr.Active(100); got != 2 {
		t.Fatalf("Active(100) = %d, want 2", got)
	}
	if got := tr.Active(200); got != 1 {
		t.Fatalf("Active(200) = %d, want 1", got)
	}

	tr.unregister(100, 4242)
	if got := tr.Active(100); got != 1 {
		t.Fatalf("Active(100) after unregister = %d, want 1", got)
	}
	tr.unregister(100, 4243)
	if got := tr.Active(100); got != 0 {
		t.Fatalf("Active(100) after full unregister = %d, want 0", got)
	}
	// Owner 200 untouched.
	if got := tr.Active(200); got != 1 {
		t.Fatalf("Active(200) = %d, want 1", got)
	}
}

func TestTrackerKillAllEmpty(t *testing.T) {
	tr := NewTracker()
	if n := tr.KillAll(1); n != 0 {
		t.Fatalf("KillAll on empty tracker = %d, want 0", n)
	}
}

func TestTailTrimsAtLineBoundary(t *testing.T) {
	b := []byte("first line\nsecond line\nthird line")
	got := Tail(b, 15)
	if got != "third line" {
		t.Fatalf("Tail = %q, want %q", got, "third line")
	}
	if got := Tail([]byte("short"), 100); got != "short" {
		t.Fatalf("Tail short = %q", got)
	}
}
