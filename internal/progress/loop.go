package progress

import (
	"context"
	"time"
)

// DefaultInterval is how often the dashboard message is re-rendered.
const DefaultInterval = 4 * time.Second

// Loop re-renders the snapshot every interval and hands the text to publish
// (an edit of a single fixed chat message). It returns when ctx is done.
// Identical consecutive renders are coalesced to avoid edit flood.
func Loop(ctx context.Context, snap *Snapshot, interval time.Duration, publish func(string)) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			text := RenderText(snap.View(), ReadSysLoad())
			if text == last {
				continue
			}
			last = text
			publish(text)
		}
	}
}
