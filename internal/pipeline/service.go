// Package pipeline orchestrates one job from download through encode to
// the upload fanout, per kind.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"encbot/internal/dirs"
	"encbot/internal/downloader"
	"encbot/internal/encoder"
	"encbot/internal/hosts"
	"encbot/internal/hosts/fanout"
	"encbot/internal/job"
	"encbot/internal/logging"
	"encbot/internal/naming"
	"encbot/internal/probe"
	"encbot/internal/progress"
	"encbot/internal/queue"
	"encbot/internal/runner"
	"encbot/internal/store"
	"encbot/internal/transport"
)

// Service runs jobs. One instance serves the single worker; fanouts it
// spawns outlive the jobs that started them.
type Service struct {
	dlPath      string
	ffmpegPath  string
	ffprobePath string
	dlTimeout   time.Duration
	layout      dirs.Layout

	run         runner.Runner
	reporter    progress.Reporter
	tr          transport.Transport
	cache       *store.RawCache
	history     *store.History
	suspensions *queue.SuspensionRegistry
	hostSet     []hosts.Uploader

	tickInterval time.Duration
	fanouts      sync.WaitGroup

	snapMu  sync.Mutex
	curSnap *progress.Snapshot
}

// Option configures a Service.
type Option func(*Service)

func WithDownloaderPath(p string) Option { return func(s *Service) { s.dlPath = p } }
func WithFFmpegPath(p string) Option     { return func(s *Service) { s.ffmpegPath = p } }
func WithFFprobePath(p string) Option    { return func(s *Service) { s.ffprobePath = p } }

// WithDownloadTimeout caps each download; expiry kills the process group
// and fails the job.
func WithDownloadTimeout(d time.Duration) Option { return func(s *Service) { s.dlTimeout = d } }

func WithLayout(l dirs.Layout) Option { return func(s *Service) { s.layout = l } }

// WithRunner injects a custom process runner (useful for testing).
func WithRunner(r runner.Runner) Option { return func(s *Service) { s.run = r } }

// WithReporter attaches an extra progress reporter beside the dashboard
// snapshot (used by the TUI).
func WithReporter(rp progress.Reporter) Option { return func(s *Service) { s.reporter = rp } }

func WithTransport(t transport.Transport) Option { return func(s *Service) { s.tr = t } }

func WithCache(c *store.RawCache) Option    { return func(s *Service) { s.cache = c } }
func WithHistory(h *store.History) Option   { return func(s *Service) { s.history = h } }
func WithSuspensions(r *queue.SuspensionRegistry) Option {
	return func(s *Service) { s.suspensions = r }
}

// WithHosts sets the fanout host set; dependency wiring keys off each
// host's Name.
func WithHosts(hs []hosts.Uploader) Option { return func(s *Service) { s.hostSet = hs } }

// WithTickInterval overrides the dashboard edit interval.
func WithTickInterval(d time.Duration) Option { return func(s *Service) { s.tickInterval = d } }

// NewService constructs a Service, applying defaults for what the
// options left unset.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.run == nil {
		s.run = runner.New(runner.NewTracker())
	}
	if s.dlTimeout == 0 {
		s.dlTimeout = 30 * time.Minute
	}
	if s.tickInterval == 0 {
		s.tickInterval = progress.DefaultInterval
	}
	return s
}

// RunJob executes one job to a terminal state. It never returns an
// error: failures are reported to the originator and folded into the
// returned state.
func (s *Service) RunJob(ctx context.Context, j *job.Job) job.State {
	switch j.Kind {
	case job.KindEncode:
		return s.runEncode(ctx, j)
	case job.KindLeech:
		return s.runLeech(ctx, j)
	case job.KindConvert:
		return s.runConvert(ctx, j)
	case job.KindMirror:
		return s.runMirror(ctx, j)
	case job.KindMultiHost:
		return s.runMultiHost(ctx, j)
	}
	s.tell(j, fmt.Sprintf("❌ unknown job kind %q", j.Kind))
	return job.StateFailed
}

// WaitFanouts blocks until every detached fanout has finished. Called on
// shutdown.
func (s *Service) WaitFanouts() { s.fanouts.Wait() }

func (s *Service) setCurrent(snap *progress.Snapshot) {
	s.snapMu.Lock()
	s.curSnap = snap
	s.snapMu.Unlock()
}

// CurrentView returns a copy of the active encode job's dashboard state.
// The second return is false when no encode job has started yet.
func (s *Service) CurrentView() (progress.View, bool) {
	s.snapMu.Lock()
	snap := s.curSnap
	s.snapMu.Unlock()
	if snap == nil {
		return progress.View{}, false
	}
	return snap.View(), true
}

func (s *Service) runEncode(ctx context.Context, j *job.Job) job.State {
	log := logging.WithComponent("pipeline")

	resolutions := encoder.SortResolutions(j.Recipe.Resolutions)
	snap := progress.NewSnapshot(j.ID, j.RealName, string(j.Kind), resolutions)
	s.setCurrent(snap)
	rep := s.combined(snap)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go progress.Loop(loopCtx, snap, s.tickInterval, func(text string) { s.edit(j, text) })

	input, st := s.acquireInput(ctx, j, snap, rep)
	if st != "" {
		return st
	}

	prober := &probe.Prober{Path: s.ffprobePath, Runner: s.run, Owner: j.Owner}
	duration, err := prober.Duration(ctx, input)
	if err != nil {
		log.Warn().Err(err).Str("input", input).Msg("duration probe failed")
	}

	enc := &encoder.Encoder{
		FFmpegPath: s.ffmpegPath,
		OutputDir:  s.layout.Output,
		Owner:      j.Owner,
		JobID:      j.ID,
		Runner:     s.run,
		Reporter:   rep,
	}

	sub, err := encoder.ResolveSubtitle(ctx, prober, input, j.SubtitlePath)
	if errors.Is(err, encoder.ErrNoSubtitle) {
		return s.suspend(j, input)
	}
	if err != nil {
		s.tell(j, fmt.Sprintf("❌ subtitle probe failed: %v", err))
		return job.StateFailed
	}

	var inputSize int64
	if fi, err := os.Stat(input); err == nil {
		inputSize = fi.Size()
	}

	for _, res := range resolutions {
		if j.Cancelled() {
			return s.finishCancelled(j)
		}
		outName := naming.Output(j.RealName, res)
		started := time.Now()
		out, err := enc.Encode(ctx, input, outName, res, j.Recipe, sub, duration)
		if errors.Is(err, runner.ErrCancelled) || j.Cancelled() {
			return s.finishCancelled(j)
		}
		if err != nil {
			snap.SetEncode(res, "failed", 0, "")
			var exit *runner.ExitError
			if errors.As(err, &exit) {
				s.tell(j, fmt.Sprintf("❌ encode %s failed (exit %d):\n%s", res, exit.Code, exit.StderrTail))
			} else {
				s.tell(j, fmt.Sprintf("❌ encode %s failed: %v", res, err))
			}
			return job.StateFailed
		}
		snap.SetEncode(res, "done", 100, "")
		s.spawnFanout(j, snap, out, res, fanout.Meta{
			DisplayName: outName,
			Duration:    duration,
			InputSize:   inputSize,
			EncodeTime:  time.Since(started),
		})
	}

	snap.SetStage(progress.StageFinalizing)
	// On success the progress message goes away; the per-resolution link
	// messages from the fanouts are what remain in the chat.
	s.deleteStatus(j)
	s.send(j.Owner, fmt.Sprintf("✅ %s: all resolutions encoded, uploads running", j.RealName))
	return job.StateDone
}

// acquireInput resolves the job's source file: a preserved download, a
// cache entry, or a fresh download. Returns "" state on success.
func (s *Service) acquireInput(ctx context.Context, j *job.Job, snap *progress.Snapshot, rep progress.Reporter) (string, job.State) {
	if j.DownloadedFile != "" {
		return j.DownloadedFile, ""
	}
	if j.CacheID != "" && s.cache != nil {
		e, ok := s.cache.Get(j.CacheID)
		if !ok {
			s.tell(j, fmt.Sprintf("❌ cache id %s not found", j.CacheID))
			return "", job.StateFailed
		}
		if j.RealName == "" {
			j.RealName = e.Name
		}
		return e.Path, ""
	}

	snap.SetStage(progress.StageDownloading)
	opts := downloader.Options{
		Path:     s.dlPath,
		Timeout:  s.dlTimeout,
		Owner:    j.Owner,
		JobID:    j.ID,
		Runner:   s.run,
		Reporter: rep,
	}
	if j.RealName == "" {
		j.RealName = downloader.ProbeName(ctx, j.URL, opts)
	}
	dest := filepath.Join(s.layout.Raw, naming.Sanitize(j.RealName))
	if err := downloader.Fetch(ctx, j.URL, dest, opts); err != nil {
		if errors.Is(err, runner.ErrCancelled) || j.Cancelled() {
			return "", s.finishCancelled(j)
		}
		if errors.Is(err, downloader.ErrTimeout) {
			s.tell(j, fmt.Sprintf("❌ download timed out after %s", s.dlTimeout))
		} else {
			s.tell(j, fmt.Sprintf("❌ download failed: %v", err))
		}
		return "", job.StateFailed
	}
	if s.cache != nil {
		if id, err := s.cache.Add(dest, j.RealName, store.OriginDownloaded); err == nil {
			j.CacheID = id
		}
	}
	j.DownloadedFile = dest
	return dest, ""
}

// suspend parks an encode whose input has no usable subtitle.
func (s *Service) suspend(j *job.Job, input string) job.State {
	if s.cache != nil && j.CacheID == "" {
		if id, err := s.cache.Add(input, j.RealName, store.OriginDownloaded); err == nil {
			j.CacheID = id
		}
	}
	if s.suspensions != nil {
		s.suspensions.Park(queue.Suspended{Job: j, File: input, CacheID: j.CacheID})
	}
	s.deleteStatus(j)
	s.tell(j, fmt.Sprintf("⏸ %s has no subtitle track. Upload an .srt to continue, or /cancel.", j.RealName))
	return job.StateSuspended
}

func (s *Service) spawnFanout(j *job.Job, snap *progress.Snapshot, out, res string, meta fanout.Meta) {
	f := &fanout.Fanout{
		Hosts:    s.hostSet,
		Snapshot: snap,
		History:  s.history,
	}
	owner := j.Owner
	s.fanouts.Add(1)
	go func() {
		defer s.fanouts.Done()
		// Detached on purpose: job cancellation does not reach fanouts.
		res := f.Run(context.Background(), out, res, meta)
		s.send(owner, linksMessage(meta.DisplayName, res))
	}()
}

func (s *Service) runLeech(ctx context.Context, j *job.Job) job.State {
	opts := downloader.Options{
		Path: s.dlPath, Timeout: s.dlTimeout, Owner: j.Owner, JobID: j.ID, Runner: s.run,
	}
	if j.RealName == "" {
		j.RealName = downloader.ProbeName(ctx, j.URL, opts)
	}
	dest := filepath.Join(s.layout.Raw, naming.Sanitize(j.RealName))
	if err := downloader.Fetch(ctx, j.URL, dest, opts); err != nil {
		if errors.Is(err, runner.ErrCancelled) || j.Cancelled() {
			return s.finishCancelled(j)
		}
		s.tell(j, fmt.Sprintf("❌ download failed: %v", err))
		return job.StateFailed
	}
	defer os.Remove(dest)

	prober := &probe.Prober{Path: s.ffprobePath, Runner: s.run, Owner: j.Owner}
	info, err := prober.Video(ctx, dest)
	if err != nil {
		s.tell(j, fmt.Sprintf("❌ probe failed: %v", err))
		return job.StateFailed
	}
	if s.tr != nil {
		if err := s.tr.SendVideo(j.Owner, dest, info.Width, info.Height, info.Duration, j.RealName); err != nil {
			s.tell(j, fmt.Sprintf("❌ send failed: %v", err))
			return job.StateFailed
		}
	}
	return job.StateDone
}

func (s *Service) runConvert(ctx context.Context, j *job.Job) job.State {
	urls := splitURLs(j.URL)
	seedbox := s.host(hosts.NameSeedbox)
	if seedbox == nil {
		s.tell(j, "❌ seedbox host not configured")
		return job.StateFailed
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			name := downloader.ProbeName(gctx, u, downloader.Options{
				Path: s.dlPath, Owner: j.Owner, JobID: j.ID, Runner: s.run,
			})
			dest := filepath.Join(s.layout.Raw, naming.Sanitize(name))
			opts := downloader.Options{
				Path: s.dlPath, Timeout: s.dlTimeout, Owner: j.Owner, JobID: j.ID, Runner: s.run,
			}
			if err := downloader.Fetch(gctx, u, dest, opts); err != nil {
				return fmt.Errorf("%s: %w", u, err)
			}
			defer os.Remove(dest)
			url, err := seedbox.Upload(gctx, hosts.Request{Path: dest, Name: name})
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			s.send(j.Owner, fmt.Sprintf("✅ %s\n%s", name, url))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, runner.ErrCancelled) || j.Cancelled() {
			return s.finishCancelled(j)
		}
		s.tell(j, fmt.Sprintf("❌ convert failed: %v", err))
		return job.StateFailed
	}
	return job.StateDone
}

func (s *Service) runMirror(ctx context.Context, j *job.Job) job.State {
	fp := s.host(hosts.NameFilePress)
	if fp == nil {
		s.tell(j, "❌ filepress host not configured")
		return job.StateFailed
	}

	urls := splitURLs(j.URL)
	var mu sync.Mutex
	var lines []string
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			url, err := fp.Upload(gctx, hosts.Request{
				Resolution: hosts.Resolution1080,
				DriveURL:   u,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lines = append(lines, fmt.Sprintf("❌ %s: %v", u, err))
				return nil
			}
			lines = append(lines, "✅ "+url)
			return nil
		})
	}
	_ = g.Wait()
	if j.Cancelled() {
		return s.finishCancelled(j)
	}
	s.tell(j, strings.Join(lines, "\n"))
	return job.StateDone
}

func (s *Service) runMultiHost(ctx context.Context, j *job.Job) job.State {
	opts := downloader.Options{
		Path: s.dlPath, Timeout: s.dlTimeout, Owner: j.Owner, JobID: j.ID, Runner: s.run,
	}
	if j.RealName == "" {
		j.RealName = downloader.ProbeName(ctx, j.URL, opts)
	}
	dest := filepath.Join(s.layout.Raw, naming.Sanitize(j.RealName))
	if err := downloader.Fetch(ctx, j.URL, dest, opts); err != nil {
		if errors.Is(err, runner.ErrCancelled) || j.Cancelled() {
			return s.finishCancelled(j)
		}
		s.tell(j, fmt.Sprintf("❌ download failed: %v", err))
		return job.StateFailed
	}

	// Fixed subset: the independent file hosts, no Drive or seedbox legs.
	subset := make([]hosts.Uploader, 0, 3)
	for _, name := range []string{hosts.NameBuzzheavier, hosts.NameGofile, hosts.NameMirrored} {
		if h := s.host(name); h != nil {
			subset = append(subset, h)
		}
	}
	if len(subset) == 0 {
		os.Remove(dest)
		s.tell(j, "❌ no multi-upload hosts configured")
		return job.StateFailed
	}

	f := &fanout.Fanout{Hosts: subset}
	res := f.Run(ctx, dest, "", fanout.Meta{DisplayName: j.RealName})
	s.tell(j, linksMessage(j.RealName, res))
	if res.AnyFail && len(res.Links) == 0 {
		return job.StateFailed
	}
	return job.StateDone
}

func (s *Service) finishCancelled(j *job.Job) job.State {
	s.tell(j, "🚫 cancelled")
	return job.StateCancelled
}

func (s *Service) host(name string) hosts.Uploader {
	for _, h := range s.hostSet {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

// tell edits the job's status message, or sends a fresh one.
func (s *Service) tell(j *job.Job, text string) {
	if s.tr == nil {
		return
	}
	if j.StatusMsg != (transport.MessageRef{}) {
		if err := s.tr.Edit(j.StatusMsg, text); err == nil {
			return
		}
	}
	if ref, err := s.tr.Send(j.Owner, text); err == nil {
		j.StatusMsg = ref
	}
}

// edit updates the status message in place and never falls back to a new
// message; dashboard ticks must not spam the chat.
func (s *Service) edit(j *job.Job, text string) {
	if s.tr == nil {
		return
	}
	if j.StatusMsg == (transport.MessageRef{}) {
		if ref, err := s.tr.Send(j.Owner, text); err == nil {
			j.StatusMsg = ref
		}
		return
	}
	_ = s.tr.Edit(j.StatusMsg, text)
}

func (s *Service) send(owner int64, text string) {
	if s.tr == nil {
		return
	}
	_, _ = s.tr.Send(owner, text)
}

func (s *Service) deleteStatus(j *job.Job) {
	if s.tr == nil || j.StatusMsg == (transport.MessageRef{}) {
		return
	}
	_ = s.tr.Delete(j.StatusMsg)
	j.StatusMsg = transport.MessageRef{}
}

// combined merges the snapshot reporter with the optional external one.
func (s *Service) combined(snap *progress.Snapshot) progress.Reporter {
	if s.reporter == nil {
		return snap.Attach()
	}
	return multiReporter{snap.Attach(), s.reporter}
}

type multiReporter []progress.Reporter

func (m multiReporter) Update(u progress.Update) {
	for _, r := range m {
		r.Update(u)
	}
}

func (m multiReporter) Log(l progress.Log) {
	for _, r := range m {
		r.Log(l)
	}
}

func (m multiReporter) Result(r progress.Result) {
	for _, rep := range m {
		rep.Result(r)
	}
}

func linksMessage(name string, res fanout.Result) string {
	names := make([]string, 0, len(res.ByHost))
	for host := range res.ByHost {
		names = append(names, host)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "📦 %s\n", name)
	for _, host := range names {
		r := res.ByHost[host]
		switch r.State {
		case progress.HostSuccess:
			fmt.Fprintf(&b, "%s: %s\n", host, r.URL)
		case progress.HostFailed:
			fmt.Fprintf(&b, "%s: failed (%s)\n", host, r.Reason)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func splitURLs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
