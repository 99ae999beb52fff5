package downloader

import (
	"strconv"
	"strings"
	"time"

	"encbot/internal/progress"
)

// ParseProgress parses yt-dlp progress output lines.
// Returns a progress.Update if the line contains download progress, and ok=true.
func ParseProgress(line, jobID string) (u progress.Update, ok bool) {
	// yt-dlp outputs lines like: [download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[download]") {
		return progress.Update{}, false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(line, "[download]"))

	// Percent. Clamped: retries may jump around but never outside [0,100].
	percent := -1.0
	if idx := strings.Index(rest, "%"); idx != -1 {
		pctStr := strings.TrimSpace(rest[:idx])
		if p, err := strconv.ParseFloat(pctStr, 64); err == nil {
			if p < 0 {
				p = 0
			}
			if p > 100 {
				p = 100
			}
			percent = p
		}
	}
	if percent < 0 {
		return progress.Update{}, false
	}

	// Total size ("of 10.00MiB", sometimes "of ~10.00MiB").
	var bytes *int64
	if idx := strings.Index(rest, " of "); idx != -1 {
		sizeStr := rest[idx+4:]
		if idx2 := strings.IndexByte(sizeStr, ' '); idx2 != -1 {
			sizeStr = sizeStr[:idx2]
		}
		sizeStr = strings.TrimPrefix(strings.TrimSpace(sizeStr), "~")
		if b, ok := parseSize(sizeStr); ok {
			bytes = &b
		}
	}

	// Speed ("at 1.50MiB/s").
	var speed *string
	if idx := strings.Index(rest, " at "); idx != -1 {
		speedPart := strings.TrimSpace(rest[idx+4:])
		if idx2 := strings.IndexByte(speedPart, ' '); idx2 != -1 {
			speedPart = speedPart[:idx2]
		}
		if speedPart != "" && !strings.EqualFold(speedPart, "Unknown") {
			speed = &speedPart
		}
	}

	// ETA ("ETA 00:04").
	var eta *time.Duration
	if idx := strings.Index(rest, "ETA "); idx != -1 {
		etaStr := strings.TrimSpace(rest[idx+4:])
		if idx2 := strings.IndexByte(etaStr, ' '); idx2 != -1 {
			etaStr = etaStr[:idx2]
		}
		if d, err := parseETA(etaStr); err == nil {
			eta = &d
		}
	}

	return progress.Update{
		JobID:   jobID,
		Stage:   progress.StageDownloading,
		Percent: percent,
		Bytes:   bytes,
		Speed:   speed,
		ETA:     eta,
		Message: "Downloading",
	}, true
}

// parseSize parses yt-dlp size tokens like "10.00MiB" or "512KiB".
func parseSize(s string) (int64, bool) {
	units := []struct {
		suffix string
		mult   float64
	}{
		{"GiB", 1 << 30}, {"MiB", 1 << 20}, {"KiB", 1 << 10},
		{"GB", 1e9}, {"MB", 1e6}, {"KB", 1e3}, {"B", 1},
	}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			num := strings.TrimSuffix(s, u.suffix)
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, false
			}
			return int64(f * u.mult), true
		}
	}
	return 0, false
}

// parseETA parses duration strings like "00:04" or "01:23:45".
func parseETA(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		sec, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0, strconv.ErrSyntax
		}
		return time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		sec, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, strconv.ErrSyntax
		}
		return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
	default:
		sec, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}
		return time.Duration(sec) * time.Second, nil
	}
}
