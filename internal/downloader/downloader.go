// Package downloader fetches source files with yt-dlp and parses its
// progress lines.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"encbot/internal/naming"
	"encbot/internal/progress"
	"encbot/internal/runner"
)

var (
	ErrFailed  = errors.New("download failed")
	ErrTimeout = errors.New("download timed out")
)

// Options controls downloader behaviour.
type Options struct {
	Path     string // yt-dlp binary
	Timeout  time.Duration
	Owner    int64
	JobID    string
	Runner   runner.Runner
	Reporter progress.Reporter
}

// Fetch downloads url into dest. On success dest exists and is non-empty.
// A cancelled download surfaces the cancellation, never ErrFailed.
func Fetch(ctx context.Context, url, dest string, opts Options) error {
	if opts.Path == "" {
		return errors.New("downloader path is required")
	}
	spec := runner.Spec{
		Path: opts.Path,
		Args: []string{
			"-o", dest,
			"--newline",
			"--force-overwrites",
			"--no-continue",
			url,
		},
		Timeout: opts.Timeout,
		Owner:   opts.Owner,
		StdoutLine: func(line string) {
			if opts.Reporter == nil {
				return
			}
			if u, ok := ParseProgress(line, opts.JobID); ok {
				opts.Reporter.Update(u)
			}
		},
	}

	_, err := opts.Runner.Run(ctx, spec)
	switch {
	case err == nil:
	case errors.Is(err, runner.ErrCancelled):
		return err
	case errors.Is(err, runner.ErrTimeout):
		return fmt.Errorf("%w after %s", ErrTimeout, opts.Timeout)
	default:
		return fmt.Errorf("%w: %v", ErrFailed, err)
	}

	fi, statErr := os.Stat(dest)
	if statErr != nil || fi.Size() == 0 {
		return fmt.Errorf("%w: no output file", ErrFailed)
	}
	return nil
}

// ProbeName returns a display name for the URL, best effort: yt-dlp's
// resolved filename when available, otherwise a cleaned URL basename.
// It never fails the job.
func ProbeName(ctx context.Context, url string, opts Options) string {
	res, err := opts.Runner.Run(ctx, runner.Spec{
		Path: opts.Path,
		Args: []string{
			"--get-filename",
			"-o", "%(title)s.%(ext)s",
			url,
		},
		Timeout:       30 * time.Second,
		Owner:         opts.Owner,
		CaptureStdout: true,
	})
	if err == nil {
		name := strings.TrimSpace(string(res.Stdout))
		if i := strings.LastIndexByte(name, '\n'); i >= 0 {
			name = strings.TrimSpace(name[i+1:])
		}
		if name != "" && name != "NA" {
			return naming.Sanitize(collapseDoubledExt(name))
		}
	}
	return naming.FromURL(url)
}

// collapseDoubledExt fixes names like "Title.mkv.mkv" that the output
// template produces when the title already carries an extension.
func collapseDoubledExt(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name
	}
	ext := name[i:]
	rest := name[:i]
	for strings.HasSuffix(rest, ext) {
		rest = strings.TrimSuffix(rest, ext)
	}
	return rest + ext
}
