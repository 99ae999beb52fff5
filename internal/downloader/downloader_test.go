package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"encbot/internal/progress"
	"encbot/internal/runner"
)

// fakeRunner scripts subprocess behaviour: emitted stdout lines, a file to
// create, and the final error.
type fakeRunner struct {
	specs  []runner.Spec
	lines  []string
	stdout string
	create string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, spec runner.Spec) (runner.Result, error) {
	f.specs = append(f.specs, spec)
	for _, line := range f.lines {
		if spec.StdoutLine != nil {
			spec.StdoutLine(line)
		}
	}
	if f.create != "" {
		if err := os.WriteFile(f.create, []byte("data"), 0o644); err != nil {
			return runner.Result{Code: -1}, err
		}
	}
	return runner.Result{Stdout: []byte(f.stdout)}, f.err
}

type recordingReporter struct {
	updates []progress.Update
}

func (r *recordingReporter) Update(u progress.Update)  { r.updates = append(r.updates, u) }
func (r *recordingReporter) Log(progress.Log)          {}
func (r *recordingReporter) Result(progress.Result)    {}

func TestFetchSuccessEmitsProgress(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "vid.mkv")
	rep := &recordingReporter{}
	fr := &fakeRunner{
		lines: []string{
			"[download] Destination: " + dest,
			"[download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04",
			"[download] 100.0% of 10.00MiB at  2.00MiB/s ETA 00:00",
		},
		create: dest,
	}

	err := Fetch(context.Background(), "https://example/video.mkv", dest, Options{
		Path:     "yt-dlp",
		JobID:    "j1",
		Runner:   fr,
		Reporter: rep,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rep.updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(rep.updates))
	}
	if rep.updates[0].Percent != 45.2 {
		t.Fatalf("first update percent = %v", rep.updates[0].Percent)
	}

	spec := fr.specs[0]
	want := []string{"-o", dest, "--newline", "--force-overwrites", "--no-continue", "https://example/video.mkv"}
	if len(spec.Args) != len(want) {
		t.Fatalf("args = %v", spec.Args)
	}
	for i := range want {
		if spec.Args[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, spec.Args[i], want[i])
		}
	}
}

func TestFetchCancelledIsNotFailure(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "vid.mkv")
	fr := &fakeRunner{err: runner.ErrCancelled}

	err := Fetch(context.Background(), "u", dest, Options{Path: "yt-dlp", Runner: fr})
	if !errors.Is(err, runner.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if errors.Is(err, ErrFailed) {
		t.Fatal("cancelled download must not be reported as failed")
	}
}

func TestFetchTimeout(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "vid.mkv")
	fr := &fakeRunner{err: runner.ErrTimeout}

	err := Fetch(context.Background(), "u", dest, Options{Path: "yt-dlp", Runner: fr})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestFetchMissingOutputIsFailure(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "vid.mkv")
	fr := &fakeRunner{} // exits 0 but writes nothing

	err := Fetch(context.Background(), "u", dest, Options{Path: "yt-dlp", Runner: fr})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("err = %v, want ErrFailed", err)
	}
}

func TestProbeNameFallsBackToURL(t *testing.T) {
	fr := &fakeRunner{err: errors.New("boom")}
	got := ProbeName(context.Background(), "https://host/files/My%20Show.mkv?x=1", Options{Path: "yt-dlp", Runner: fr})
	if got != "My Show.mkv" {
		t.Fatalf("ProbeName = %q", got)
	}
}

func TestProbeNameUsesResolvedFilename(t *testing.T) {
	fr := &fakeRunner{stdout: "Some Title.mkv\n"}
	got := ProbeName(context.Background(), "https://host/x", Options{Path: "yt-dlp", Runner: fr})
	if got != "Some Title.mkv" {
		t.Fatalf("ProbeName = %q", got)
	}
}
