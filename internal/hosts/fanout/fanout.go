// Package fanout pushes one finished encode to every configured host
// concurrently, honouring the dependency edges between them: FilePress and
// Abyss ingest the Drive copy, TurboVid and VidHide ingest the seedbox
// copy.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"encbot/internal/hosts"
	"encbot/internal/logging"
	"encbot/internal/progress"
	"encbot/internal/store"
)

// Meta carries the measurements recorded alongside the links.
type Meta struct {
	DisplayName string
	Duration    float64 // source duration, seconds
	InputSize   int64
	EncodeTime  time.Duration
}

// HostResult is the terminal outcome for one host.
type HostResult struct {
	State  progress.HostState
	URL    string
	Reason string
}

// Result is the outcome of a complete fanout.
type Result struct {
	Links   map[string]string // host name to URL, successes only
	ByHost  map[string]HostResult
	AnyFail bool
}

// Fanout runs the host set for one output file. Zero-value optional
// fields (Snapshot, Notify, History) are skipped.
type Fanout struct {
	Hosts    []hosts.Uploader
	Snapshot *progress.Snapshot
	Notify   func(text string) // re-render target, called on every host transition
	History  *store.History
}

// latch broadcasts a dependency URL to every waiter once resolved.
// Resolving with "" means the dependency produced nothing.
type latch struct {
	done chan struct{}
	url  string
}

func newLatch() *latch { return &latch{done: make(chan struct{})} }

func (l *latch) resolve(url string) {
	l.url = url
	close(l.done)
}

func (l *latch) wait(ctx context.Context) (string, error) {
	select {
	case <-l.done:
		return l.url, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Run uploads file to every host and blocks until all of them reach a
// terminal state. No host is left pending: every entry of the result is
// success, failed, or skipped.
func (f *Fanout) Run(ctx context.Context, file, resolution string, meta Meta) Result {
	log := logging.WithComponent("fanout")

	drive := newLatch()
	seedbox := newLatch()
	if !f.hasHost(hosts.NameGDrive) {
		drive.resolve("")
	}
	if !f.hasHost(hosts.NameSeedbox) {
		seedbox.resolve("")
	}

	var mu sync.Mutex
	byHost := make(map[string]HostResult, len(f.Hosts))
	render := func() string {
		mu.Lock()
		defer mu.Unlock()
		return renderStatus(meta.DisplayName, resolution, byHost)
	}
	record := func(name string, r HostResult) {
		mu.Lock()
		byHost[name] = r
		mu.Unlock()
		if f.Snapshot != nil {
			f.Snapshot.SetUpload(resolution, name, r.State, r.URL, r.Reason)
		}
		if f.Notify != nil {
			f.Notify(render())
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range f.Hosts {
		h := h
		g.Go(func() error {
			req := hosts.Request{
				Path:       file,
				Name:       meta.DisplayName,
				Resolution: resolution,
			}
			var err error
			switch h.Name() {
			case hosts.NameFilePress, hosts.NameAbyss:
				req.DriveURL, err = drive.wait(gctx)
			case hosts.NameTurboVid, hosts.NameVidHide:
				req.SeedboxURL, err = seedbox.wait(gctx)
			}
			if err != nil {
				record(h.Name(), HostResult{State: progress.HostFailed, Reason: err.Error()})
				return nil
			}

			record(h.Name(), HostResult{State: progress.HostRunning})
			url, err := h.Upload(gctx, req)

			switch h.Name() {
			case hosts.NameGDrive:
				drive.resolve(url)
			case hosts.NameSeedbox:
				seedbox.resolve(url)
			}

			record(h.Name(), classify(url, err))
			if err != nil && !skippable(err) {
				log.Warn().Str("host", h.Name()).Err(err).Msg("upload failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Links: make(map[string]string), ByHost: byHost}
	for name, r := range byHost {
		switch r.State {
		case progress.HostSuccess:
			res.Links[name] = r.URL
		case progress.HostFailed:
			res.AnyFail = true
		}
	}

	if f.History != nil {
		var outSize int64
		if fi, err := os.Stat(file); err == nil {
			outSize = fi.Size()
		}
		if err := f.History.Append(store.ResultRecord{
			Filename:  meta.DisplayName,
			Quality:   resolution,
			Timestamp: time.Now().Format(time.RFC3339),
			Links:     res.Links,
			Meta: store.ResultMeta{
				Duration:   meta.Duration,
				InputSize:  meta.InputSize,
				OutputSize: outSize,
				EncodeTime: meta.EncodeTime.Seconds(),
			},
		}); err != nil {
			log.Warn().Err(err).Msg("history append failed")
		}
	}

	// The output file has served every host; keep the disk clean.
	if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("file", file).Err(err).Msg("output cleanup failed")
	}
	if f.Notify != nil {
		f.Notify(render())
	}
	return res
}

func (f *Fanout) hasHost(name string) bool {
	for _, h := range f.Hosts {
		if h.Name() == name {
			return true
		}
	}
	return false
}

// classify maps an upload outcome to a terminal host state. Disabled
// hosts, ineligible resolutions, and missing dependencies are skips, not
// failures.
func classify(url string, err error) HostResult {
	if err == nil {
		return HostResult{State: progress.HostSuccess, URL: url}
	}
	if skippable(err) {
		return HostResult{State: progress.HostSkipped, Reason: skipReason(err)}
	}
	return HostResult{State: progress.HostFailed, Reason: err.Error()}
}

func skippable(err error) bool {
	var dep *hosts.DependencyError
	return errors.Is(err, hosts.ErrDisabled) ||
		errors.Is(err, hosts.ErrNotEligible) ||
		errors.As(err, &dep)
}

func skipReason(err error) string {
	var dep *hosts.DependencyError
	switch {
	case errors.Is(err, hosts.ErrDisabled):
		return "disabled"
	case errors.Is(err, hosts.ErrNotEligible):
		return "1080p only"
	case errors.As(err, &dep):
		return "no " + dep.Dep + " link"
	}
	return err.Error()
}

// renderStatus builds the per-fanout status text, one line per host in a
// stable order. Caller holds the lock guarding byHost.
func renderStatus(name, resolution string, byHost map[string]HostResult) string {
	hostNames := make([]string, 0, len(byHost))
	for h := range byHost {
		hostNames = append(hostNames, h)
	}
	sort.Strings(hostNames)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s uploads\n", name, resolution)
	for _, h := range hostNames {
		r := byHost[h]
		switch r.State {
		case progress.HostSuccess:
			fmt.Fprintf(&b, "%s: %s\n", h, r.URL)
		case progress.HostSkipped:
			fmt.Fprintf(&b, "%s: skipped (%s)\n", h, r.Reason)
		case progress.HostFailed:
			fmt.Fprintf(&b, "%s: failed (%s)\n", h, r.Reason)
		default:
			fmt.Fprintf(&b, "%s: %s\n", h, r.State)
		}
	}
	return b.String()
}
