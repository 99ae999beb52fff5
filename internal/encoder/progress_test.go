package encoder

import (
	"testing"
	"time"
)

func TestProgressStateEmitsOnMarker(t *testing.T) {
	ps := &ProgressState{}

	if _, ok := ps.UpdateFromLine("out_time_ms=15000000", "j", "480p", 60); ok {
		t.Fatal("non-marker line must not emit")
	}
	if _, ok := ps.UpdateFromLine("speed=1.5x", "j", "480p", 60); ok {
		t.Fatal("non-marker line must not emit")
	}

	u, ok := ps.UpdateFromLine("progress=continue", "j", "480p", 60)
	if !ok {
		t.Fatal("marker line must emit")
	}
	if u.Percent != 25 {
		t.Fatalf("percent = %v, want 25", u.Percent)
	}
	if u.Resolution != "480p" {
		t.Fatalf("resolution = %q", u.Resolution)
	}
	if u.Speed == nil || *u.Speed != "1.5x" {
		t.Fatalf("speed = %v", u.Speed)
	}
	// 45s of media left at 1.5x = 30s wall time.
	if u.ETA == nil || *u.ETA != 30*time.Second {
		t.Fatalf("eta = %v, want 30s", u.ETA)
	}
}

func TestProgressStateClampsAt100(t *testing.T) {
	ps := &ProgressState{}
	ps.UpdateFromLine("out_time_ms=90000000", "j", "360p", 60)
	u, ok := ps.UpdateFromLine("progress=end", "j", "360p", 60)
	if !ok || u.Percent != 100 {
		t.Fatalf("percent = %v, want 100", u.Percent)
	}
}

func TestProgressStateUnknownDuration(t *testing.T) {
	ps := &ProgressState{}
	ps.UpdateFromLine("out_time_ms=1000000", "j", "360p", 0)
	u, _ := ps.UpdateFromLine("progress=continue", "j", "360p", 0)
	if u.Percent >= 0 {
		t.Fatalf("percent = %v, want negative (unknown)", u.Percent)
	}
	if u.ETA != nil {
		t.Fatal("no ETA without duration")
	}
}
