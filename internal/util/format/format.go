// Package format holds the small string helpers the chat replies and
// dashboard share.
package format

import (
	"fmt"
	"strconv"
	"time"
)

// HumanizeBytes renders a byte count with one decimal and a binary-step
// unit, e.g. "1.5 MB". Counts below 1 KiB stay plain ("512 B").
func HumanizeBytes(b int64) string {
	const step = 1024
	if b < step {
		return strconv.FormatInt(b, 10) + " B"
	}
	units := []string{"KB", "MB", "GB", "TB"}
	val := float64(b) / step
	idx := 0
	for val >= step && idx < len(units)-1 {
		val /= step
		idx++
	}
	return strconv.FormatFloat(val, 'f', 1, 64) + " " + units[idx]
}

// Clock renders a duration as m:ss or h:mm:ss, the style used by batch
// summaries and encode timers.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
