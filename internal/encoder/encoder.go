package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"encbot/internal/logging"
	"encbot/internal/probe"
	"encbot/internal/progress"
	"encbot/internal/runner"
)

// ErrNoSubtitle signals that embedded-auto subtitle resolution found no
// Indonesian stream and no external file was supplied. It is a suspension
// signal, not a failure.
var ErrNoSubtitle = errors.New("no subtitle available")

var nullSink = func() string {
	if runtime.GOOS == "windows" {
		return "NUL"
	}
	return "/dev/null"
}()

// Encoder runs ffmpeg for one job. Resolutions are encoded one call at a
// time; the caller drives the order.
type Encoder struct {
	FFmpegPath string
	OutputDir  string
	Owner      int64
	JobID      string
	Runner     runner.Runner
	Reporter   progress.Reporter
}

// ResolveSubtitle picks the subtitle source for an encode: the external
// file when one is supplied, otherwise the first embedded stream whose
// language tag reads as Indonesian. Returns ErrNoSubtitle when neither
// exists.
func ResolveSubtitle(ctx context.Context, prober *probe.Prober, input, external string) (Subtitle, error) {
	if external != "" {
		return Subtitle{Path: external, StreamIndex: -1}, nil
	}
	tags, err := prober.SubtitleStreams(ctx, input)
	if err != nil {
		return Subtitle{}, fmt.Errorf("subtitle probe: %w", err)
	}
	idx := probe.FindIndonesian(tags)
	if idx < 0 {
		return Subtitle{}, ErrNoSubtitle
	}
	return Subtitle{Path: input, StreamIndex: idx}, nil
}

// Encode produces one output file for the given resolution and returns its
// path. Two-pass mode shares a pass-log prefix between passes and removes
// every pass-log file afterwards.
func (e *Encoder) Encode(ctx context.Context, input, outName, res string, rec Recipe, sub Subtitle, durationSec float64) (string, error) {
	if e.FFmpegPath == "" {
		return "", errors.New("ffmpeg path is required")
	}
	output := filepath.Join(e.OutputDir, outName)
	log := logging.WithComponent("encoder")

	if rec.TwoPassFor(res) {
		prefix := filepath.Join(e.OutputDir, fmt.Sprintf("ff_%d_%s", e.Owner, res))
		defer removePassLogs(prefix)

		log.Info().Str("res", res).Str("mode", "2pass").Msg("encode start")
		if err := e.runPass(ctx, input, output, res, rec, sub, 1, prefix, durationSec); err != nil {
			return "", err
		}
		if err := e.runPass(ctx, input, output, res, rec, sub, 2, prefix, durationSec); err != nil {
			return "", err
		}
	} else {
		log.Info().Str("res", res).Str("mode", "crf").Str("crf", rec.CRFFor(res)).Msg("encode start")
		if err := e.runPass(ctx, input, output, res, rec, sub, 0, "", durationSec); err != nil {
			return "", err
		}
	}

	fi, err := os.Stat(output)
	if err != nil {
		return "", fmt.Errorf("stat output: %w", err)
	}
	if fi.Size() == 0 {
		_ = os.Remove(output)
		return "", errors.New("encode produced empty output")
	}
	return output, nil
}

func (e *Encoder) runPass(ctx context.Context, input, output, res string, rec Recipe, sub Subtitle, pass int, prefix string, durationSec float64) error {
	args := buildArgs(input, output, res, rec, sub, pass, prefix)

	state := &ProgressState{}
	label := "encoding"
	if pass == 1 {
		label = "pass 1"
	} else if pass == 2 {
		label = "pass 2"
	}

	_, err := e.Runner.Run(ctx, runner.Spec{
		Path:  e.FFmpegPath,
		Args:  args,
		Owner: e.Owner,
		StdoutLine: func(line string) {
			if e.Reporter == nil {
				return
			}
			if u, ok := state.UpdateFromLine(line, e.JobID, res, durationSec); ok {
				u.Message = label
				e.Reporter.Update(u)
			}
		},
		StderrLine: func(line string) {
			if e.Reporter != nil {
				e.Reporter.Log(progress.Log{JobID: e.JobID, Stream: progress.StreamStderr, Line: line})
			}
		},
	})
	if err != nil {
		if pass != 1 {
			_ = os.Remove(output)
		}
		if errors.Is(err, runner.ErrCancelled) {
			return err
		}
		return fmt.Errorf("ffmpeg %s %s: %w", res, label, err)
	}
	return nil
}

// removePassLogs deletes every file whose name begins with the pass-log
// prefix (ffmpeg writes "<prefix>-0.log" and mbtree variants).
func removePassLogs(prefix string) {
	dir := filepath.Dir(prefix)
	base := filepath.Base(prefix)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, ent := range entries {
		if strings.HasPrefix(ent.Name(), base) {
			_ = os.Remove(filepath.Join(dir, ent.Name()))
		}
	}
}
