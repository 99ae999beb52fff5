// Package probe wraps ffprobe: container duration, subtitle stream
// languages, and basic video geometry.
package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"encbot/internal/runner"
)

// Prober shells out to ffprobe through the shared runner.
type Prober struct {
	Path   string // ffprobe binary
	Runner runner.Runner
	Owner  int64
}

// Duration returns the container duration in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	res, err := p.Runner.Run(ctx, runner.Spec{
		Path: p.Path,
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			path,
		},
		Owner:         p.Owner,
		CaptureStdout: true,
	})
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	return ParseDuration(string(res.Stdout))
}

// ParseDuration parses ffprobe's duration output ("123.456\n").
func ParseDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("no duration in probe output")
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return d, nil
}

// SubtitleStreams returns the language tag of every subtitle stream, in
// stream order. Streams without a tag yield an empty string.
func (p *Prober) SubtitleStreams(ctx context.Context, path string) ([]string, error) {
	res, err := p.Runner.Run(ctx, runner.Spec{
		Path: p.Path,
		Args: []string{
			"-v", "error",
			"-select_streams", "s",
			"-show_entries", "stream_tags=language",
			"-of", "csv=p=0",
			path,
		},
		Owner:         p.Owner,
		CaptureStdout: true,
	})
	if err != nil {
		return nil, fmt.Errorf("probe subtitles: %w", err)
	}
	return ParseStreamTags(string(res.Stdout)), nil
}

// ParseStreamTags splits the csv=p=0 output into one tag per line. Untagged
// streams appear as empty strings so indexes stay aligned with stream order.
func ParseStreamTags(out string) []string {
	out = strings.TrimRight(out, "\n")
	if strings.TrimSpace(out) == "" {
		return nil
	}
	lines := strings.Split(out, "\n")
	tags := make([]string, len(lines))
	for i, line := range lines {
		tags[i] = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ","))
	}
	return tags
}

// FindIndonesian returns the index of the first stream whose language tag
// contains "ind" (matches both "ind" and "indonesian"), or -1.
func FindIndonesian(tags []string) int {
	for i, tag := range tags {
		if strings.Contains(strings.ToLower(tag), "ind") {
			return i
		}
	}
	return -1
}

// VideoInfo is the geometry needed to send a file as a chat video.
type VideoInfo struct {
	Width    int
	Height   int
	Duration float64
}

// Video probes width, height, and duration of the first video stream.
func (p *Prober) Video(ctx context.Context, path string) (VideoInfo, error) {
	res, err := p.Runner.Run(ctx, runner.Spec{
		Path: p.Path,
		Args: []string{
			"-v", "error",
			"-select_streams", "v:0",
			"-show_entries", "stream=width,height:format=duration",
			"-of", "default=noprint_wrappers=1",
			path,
		},
		Owner:         p.Owner,
		CaptureStdout: true,
	})
	if err != nil {
		return VideoInfo{}, fmt.Errorf("probe video: %w", err)
	}
	return ParseVideoInfo(string(res.Stdout)), nil
}

// ParseVideoInfo reads key=value lines from the flat ffprobe output.
func ParseVideoInfo(out string) VideoInfo {
	var vi VideoInfo
	for _, line := range strings.Split(out, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch k {
		case "width":
			vi.Width, _ = strconv.Atoi(v)
		case "height":
			vi.Height, _ = strconv.Atoi(v)
		case "duration":
			vi.Duration, _ = strconv.ParseFloat(v, 64)
		}
	}
	return vi
}
