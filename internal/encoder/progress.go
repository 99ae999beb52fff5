package encoder

import (
	"strconv"
	"strings"
	"time"

	"encbot/internal/progress"
)

// ProgressState accumulates ffmpeg -progress key=value lines and emits an
// update at each "progress" marker.
type ProgressState struct {
	OutTimeMs int64 // microseconds despite the name
	SpeedStr  string
	TotalSize int64
}

// UpdateFromLine folds one line into the state. Percent is the output time
// position over the probed input duration; ETA is derived from the encode
// speed factor when ffmpeg reports one.
func (ps *ProgressState) UpdateFromLine(line, jobID, resolution string, durationSec float64) (u progress.Update, ok bool) {
	kv := strings.SplitN(line, "=", 2)
	if len(kv) != 2 {
		return progress.Update{}, false
	}

	key := strings.TrimSpace(kv[0])
	val := strings.TrimSpace(kv[1])

	switch key {
	case "out_time_ms":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.OutTimeMs = v
		}
	case "speed":
		ps.SpeedStr = val
	case "total_size":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.TotalSize = v
		}
	case "progress":
		percent := -1.0
		if durationSec > 0 {
			den := durationSec * 1_000_000
			percent = float64(ps.OutTimeMs) / den * 100.0
			if percent > 100 {
				percent = 100
			}
			if percent < 0 {
				percent = 0
			}
		}

		var speedPtr *string
		if ps.SpeedStr != "" && ps.SpeedStr != "N/A" {
			s := ps.SpeedStr
			speedPtr = &s
		}

		var bytesPtr *int64
		if ps.TotalSize > 0 {
			b := ps.TotalSize
			bytesPtr = &b
		}

		eta := ps.eta(durationSec)

		return progress.Update{
			JobID:      jobID,
			Stage:      progress.StageEncoding,
			Resolution: resolution,
			Percent:    percent,
			Speed:      speedPtr,
			Bytes:      bytesPtr,
			ETA:        eta,
			Message:    "encoding",
		}, true
	}

	return progress.Update{}, false
}

// eta estimates remaining wall time from the speed factor ("1.2x").
func (ps *ProgressState) eta(durationSec float64) *time.Duration {
	if durationSec <= 0 || ps.SpeedStr == "" {
		return nil
	}
	factorStr := strings.TrimSuffix(ps.SpeedStr, "x")
	factor, err := strconv.ParseFloat(factorStr, 64)
	if err != nil || factor <= 0 {
		return nil
	}
	remaining := durationSec - float64(ps.OutTimeMs)/1_000_000
	if remaining < 0 {
		remaining = 0
	}
	d := time.Duration(remaining / factor * float64(time.Second))
	return &d
}
