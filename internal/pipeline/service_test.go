package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"encbot/internal/dirs"
	"encbot/internal/encoder"
	"encbot/internal/hosts"
	"encbot/internal/job"
	"encbot/internal/queue"
	"encbot/internal/runner"
	"encbot/internal/store"
	"encbot/internal/transport"
)

// toolRunner scripts the external tools the pipeline spawns. Dispatch is
// by binary name and a few argument markers, the way the real calls look.
type toolRunner struct {
	mu    sync.Mutex
	calls []runner.Spec

	subtitleTags string // ffprobe -select_streams s output
	encodeErr    error
	fetchErr     error
}

func (r *toolRunner) Run(ctx context.Context, spec runner.Spec) (runner.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, spec)
	r.mu.Unlock()

	switch filepath.Base(spec.Path) {
	case "yt-dlp":
		if hasArg(spec, "--get-filename") {
			return runner.Result{Stdout: []byte("Test.Show.S01E01.mkv\n")}, nil
		}
		if r.fetchErr != nil {
			return runner.Result{}, r.fetchErr
		}
		return runner.Result{}, touch(destOf(spec))
	case "ffprobe":
		if hasArg(spec, "-select_streams") && hasArg(spec, "s") {
			return runner.Result{Stdout: []byte(r.subtitleTags)}, nil
		}
		if hasArg(spec, "stream=width,height:format=duration") {
			return runner.Result{Stdout: []byte("width=1280\nheight=720\nduration=120.0\n")}, nil
		}
		return runner.Result{Stdout: []byte("120.0\n")}, nil
	case "ffmpeg":
		if r.encodeErr != nil {
			return runner.Result{}, r.encodeErr
		}
		out := outputOf(spec)
		if out != "" && out != os.DevNull {
			return runner.Result{}, touch(out)
		}
		return runner.Result{}, nil
	}
	return runner.Result{}, errors.New("unexpected binary " + spec.Path)
}

func hasArg(spec runner.Spec, want string) bool {
	for _, a := range spec.Args {
		if a == want {
			return true
		}
	}
	return false
}

// destOf extracts the -o argument of a yt-dlp invocation.
func destOf(spec runner.Spec) string {
	for i, a := range spec.Args {
		if a == "-o" && i+1 < len(spec.Args) {
			return spec.Args[i+1]
		}
	}
	return ""
}

// outputOf extracts the ffmpeg output path, the final argument after the
// progress flags.
func outputOf(spec runner.Spec) string {
	if len(spec.Args) == 0 {
		return ""
	}
	return spec.Args[len(spec.Args)-1]
}

func touch(path string) error {
	if path == "" {
		return errors.New("no destination in args")
	}
	return os.WriteFile(path, []byte("data"), 0o644)
}

// chatRecorder is an in-memory Transport.
type chatRecorder struct {
	mu      sync.Mutex
	sent    []string
	edits   []string
	deleted int
	videos  int
	nextID  int64
}

func (c *chatRecorder) Send(chat int64, text string) (transport.MessageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.sent = append(c.sent, text)
	return transport.MessageRef{Chat: chat, ID: c.nextID}, nil
}

func (c *chatRecorder) Edit(ref transport.MessageRef, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edits = append(c.edits, text)
	return nil
}

func (c *chatRecorder) Delete(ref transport.MessageRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted++
	return nil
}

func (c *chatRecorder) SendDocument(chat int64, path, caption string) error { return nil }

func (c *chatRecorder) SendVideo(chat int64, path string, w, h int, d float64, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos++
	return nil
}

func (c *chatRecorder) Updates() <-chan transport.Update { return nil }

func (c *chatRecorder) all() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(append(append([]string{}, c.sent...), c.edits...), "\n")
}

// fakeUploader is a scripted fanout host.
type fakeUploader struct {
	name string
	url  string
	err  error

	mu  sync.Mutex
	req hosts.Request
}

func (f *fakeUploader) Name() string  { return f.name }
func (f *fakeUploader) Enabled() bool { return true }

func (f *fakeUploader) Upload(ctx context.Context, req hosts.Request) (string, error) {
	f.mu.Lock()
	f.req = req
	f.mu.Unlock()
	return f.url, f.err
}

func testLayout(t *testing.T) dirs.Layout {
	t.Helper()
	root := t.TempDir()
	l := dirs.Layout{
		State:  filepath.Join(root, "state"),
		Raw:    filepath.Join(root, "raw"),
		Manual: filepath.Join(root, "manual"),
		Output: filepath.Join(root, "out"),
		Tools:  filepath.Join(root, "tools"),
	}
	if err := l.EnsureAll(); err != nil {
		t.Fatal(err)
	}
	return l
}

func testRecipe() encoder.Recipe {
	return encoder.Recipe{
		Resolutions: []string{"720p"},
		CRF:         "26",
		Mode:        encoder.ModeCRF,
		Audio:       encoder.AudioLC,
		Style:       encoder.Style{FontName: "Arial", FontSize: 15, MarginV: 25, Bold: true},
	}
}

func newTestService(t *testing.T, tools *toolRunner, chat *chatRecorder, hostSet []hosts.Uploader, susp *queue.SuspensionRegistry) (*Service, *store.RawCache, *store.History) {
	t.Helper()
	layout := testLayout(t)
	cache, err := store.OpenRawCache(filepath.Join(layout.State, "cache.json"), layout.Manual)
	if err != nil {
		t.Fatal(err)
	}
	hist, err := store.OpenHistory(filepath.Join(layout.State, "history.json"))
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(
		WithDownloaderPath("yt-dlp"),
		WithFFmpegPath("ffmpeg"),
		WithFFprobePath("ffprobe"),
		WithLayout(layout),
		WithRunner(tools),
		WithTransport(chat),
		WithCache(cache),
		WithHistory(hist),
		WithSuspensions(susp),
		WithHosts(hostSet),
		WithTickInterval(time.Hour), // keep the dashboard loop quiet in tests
	)
	return svc, cache, hist
}

func TestEncodeJobEndToEnd(t *testing.T) {
	tools := &toolRunner{subtitleTags: "ind\n"}
	chat := &chatRecorder{}
	gofile := &fakeUploader{name: hosts.NameGofile, url: "https://gofile.io/d/x"}
	svc, cache, hist := newTestService(t, tools, chat, []hosts.Uploader{gofile}, nil)

	j := job.New(7, job.KindEncode)
	j.URL = "https://example.com/video"
	j.Recipe = testRecipe()

	state := svc.RunJob(context.Background(), j)
	svc.WaitFanouts()

	if state != job.StateDone {
		t.Fatalf("state = %s, want done", state)
	}
	if j.CacheID == "" {
		t.Fatal("download not registered in raw cache")
	}
	if e, ok := cache.Get(j.CacheID); !ok || e.Name != "Test.Show.S01E01.mkv" {
		t.Fatalf("cache entry = %+v %v", e, ok)
	}
	recs := hist.All()
	if len(recs) != 1 {
		t.Fatalf("history records = %d, want 1", len(recs))
	}
	if recs[0].Links[hosts.NameGofile] == "" {
		t.Fatalf("record links = %v", recs[0].Links)
	}
	if !strings.Contains(chat.all(), "gofile.io/d/x") {
		t.Fatal("links message missing host url")
	}
}

func TestEncodeSuccessDeletesProgressMessage(t *testing.T) {
	tools := &toolRunner{subtitleTags: "ind\n"}
	chat := &chatRecorder{}
	gofile := &fakeUploader{name: hosts.NameGofile, url: "https://gofile.io/d/x"}
	svc, _, _ := newTestService(t, tools, chat, []hosts.Uploader{gofile}, nil)

	j := job.New(7, job.KindEncode)
	j.URL = "https://example.com/video"
	j.Recipe = testRecipe()
	// Stand in for the dashboard message the edit loop would have put up.
	j.StatusMsg = transport.MessageRef{Chat: 7, ID: 1}

	state := svc.RunJob(context.Background(), j)
	svc.WaitFanouts()

	if state != job.StateDone {
		t.Fatalf("state = %s, want done", state)
	}
	if chat.deleted == 0 {
		t.Fatal("progress message survived a successful encode")
	}
	if !strings.Contains(chat.all(), "all resolutions encoded") {
		t.Fatal("completion notice missing")
	}
}

func TestEncodeJobNoSubtitleSuspends(t *testing.T) {
	tools := &toolRunner{subtitleTags: ""}
	chat := &chatRecorder{}
	susp := queue.NewSuspensionRegistry()
	svc, _, _ := newTestService(t, tools, chat, nil, susp)

	j := job.New(7, job.KindEncode)
	j.URL = "https://example.com/video"
	j.Recipe = testRecipe()

	if state := svc.RunJob(context.Background(), j); state != job.StateSuspended {
		t.Fatalf("state = %s, want suspended", state)
	}
	if susp.Count(7) != 1 {
		t.Fatalf("suspensions = %d, want 1", susp.Count(7))
	}
	if !strings.Contains(chat.all(), "no subtitle") {
		t.Fatal("suspension prompt missing")
	}

	// The resumed job must skip the download phase.
	resumed, ok := susp.Resume(7, "/tmp/sub.srt")
	if !ok || resumed.DownloadedFile == "" {
		t.Fatalf("resume = %+v %v", resumed, ok)
	}
}

func TestEncodeJobFailureReportsStderrTail(t *testing.T) {
	tools := &toolRunner{
		subtitleTags: "ind\n",
		encodeErr:    &runner.ExitError{Code: 1, StderrTail: "x264 [error]: broken input"},
	}
	chat := &chatRecorder{}
	svc, _, _ := newTestService(t, tools, chat, nil, nil)

	j := job.New(7, job.KindEncode)
	j.URL = "https://example.com/video"
	j.Recipe = testRecipe()

	if state := svc.RunJob(context.Background(), j); state != job.StateFailed {
		t.Fatalf("state = %s, want failed", state)
	}
	if !strings.Contains(chat.all(), "broken input") {
		t.Fatal("failure message does not carry the stderr tail")
	}
}

func TestEncodeJobCancelled(t *testing.T) {
	tools := &toolRunner{subtitleTags: "ind\n", encodeErr: runner.ErrCancelled}
	chat := &chatRecorder{}
	svc, _, _ := newTestService(t, tools, chat, nil, nil)

	j := job.New(7, job.KindEncode)
	j.URL = "https://example.com/video"
	j.Recipe = testRecipe()
	j.Cancel()

	if state := svc.RunJob(context.Background(), j); state != job.StateCancelled {
		t.Fatalf("state = %s, want cancelled", state)
	}
}

func TestEncodeFromCacheSkipsDownload(t *testing.T) {
	tools := &toolRunner{subtitleTags: "ind\n"}
	chat := &chatRecorder{}
	svc, cache, _ := newTestService(t, tools, chat, nil, nil)

	src := filepath.Join(t.TempDir(), "cached.mkv")
	if err := touch(src); err != nil {
		t.Fatal(err)
	}
	id, err := cache.Add(src, "Cached.Show.E02.mkv", store.OriginDownloaded)
	if err != nil {
		t.Fatal(err)
	}

	j := job.New(7, job.KindEncode)
	j.CacheID = id
	j.Recipe = testRecipe()

	state := svc.RunJob(context.Background(), j)
	svc.WaitFanouts()
	if state != job.StateDone {
		t.Fatalf("state = %s, want done", state)
	}
	for _, call := range tools.calls {
		if filepath.Base(call.Path) == "yt-dlp" {
			t.Fatal("cache re-encode still invoked the downloader")
		}
	}
	if j.RealName != "Cached.Show.E02.mkv" {
		t.Fatalf("RealName = %q", j.RealName)
	}
}

func TestLeechJobSendsVideo(t *testing.T) {
	tools := &toolRunner{}
	chat := &chatRecorder{}
	svc, _, _ := newTestService(t, tools, chat, nil, nil)

	j := job.New(7, job.KindLeech)
	j.URL = "https://example.com/video"

	if state := svc.RunJob(context.Background(), j); state != job.StateDone {
		t.Fatalf("state = %s, want done", state)
	}
	if chat.videos != 1 {
		t.Fatalf("videos sent = %d, want 1", chat.videos)
	}
}

func TestConvertJobUploadsToSeedbox(t *testing.T) {
	tools := &toolRunner{}
	chat := &chatRecorder{}
	seedbox := &fakeUploader{name: hosts.NameSeedbox, url: "https://box/dl/a"}
	svc, _, _ := newTestService(t, tools, chat, []hosts.Uploader{seedbox}, nil)

	j := job.New(7, job.KindConvert)
	j.URL = "https://example.com/a, https://example.com/b"

	if state := svc.RunJob(context.Background(), j); state != job.StateDone {
		t.Fatalf("state = %s, want done", state)
	}
	if !strings.Contains(chat.all(), "box/dl/a") {
		t.Fatal("seedbox link missing from replies")
	}
}

func TestMirrorJobIngestsDriveLinks(t *testing.T) {
	tools := &toolRunner{}
	chat := &chatRecorder{}
	fp := &fakeUploader{name: hosts.NameFilePress, url: "https://fp.example/file/d1"}
	svc, _, _ := newTestService(t, tools, chat, []hosts.Uploader{fp}, nil)

	j := job.New(7, job.KindMirror)
	j.URL = "https://drive.google.com/file/d/abc/view"

	if state := svc.RunJob(context.Background(), j); state != job.StateDone {
		t.Fatalf("state = %s, want done", state)
	}
	fp.mu.Lock()
	got := fp.req.DriveURL
	fp.mu.Unlock()
	if got != "https://drive.google.com/file/d/abc/view" {
		t.Fatalf("filepress DriveURL = %q", got)
	}
	if !strings.Contains(chat.all(), "fp.example/file/d1") {
		t.Fatal("mirror link missing from reply")
	}
}

func TestMultiHostJob(t *testing.T) {
	tools := &toolRunner{}
	chat := &chatRecorder{}
	hostSet := []hosts.Uploader{
		&fakeUploader{name: hosts.NameBuzzheavier, url: "https://buzzheavier.com/z"},
		&fakeUploader{name: hosts.NameGofile, url: "https://gofile.io/d/z"},
	}
	svc, _, _ := newTestService(t, tools, chat, hostSet, nil)

	j := job.New(7, job.KindMultiHost)
	j.URL = "https://example.com/video"

	if state := svc.RunJob(context.Background(), j); state != job.StateDone {
		t.Fatalf("state = %s, want done", state)
	}
	out := chat.all()
	if !strings.Contains(out, "buzzheavier.com/z") || !strings.Contains(out, "gofile.io/d/z") {
		t.Fatalf("links message = %q", out)
	}
}
