package store

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"encbot/internal/logging"
)

// WatchManual adopts video files dropped into the manual folder while the
// bot is running. Files are picked up once writes settle; a full rescan
// covers anything the debounce window misses. Blocks until ctx is done.
func (c *RawCache) WatchManual(ctx context.Context) error {
	if c.manualDir == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(c.manualDir); err != nil {
		return err
	}

	log := logging.WithComponent("rawcache")
	// pending maps path to the time of its last write event; a file is
	// adopted once it has been quiet for a settle period.
	pending := make(map[string]time.Time)
	const settle = 2 * time.Second
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !videoExts[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			pending[ev.Name] = time.Now()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("manual folder watch error")
		case now := <-tick.C:
			for path, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, path)
				id, err := c.Add(path, filepath.Base(path), OriginManual)
				if err != nil {
					log.Warn().Err(err).Str("path", path).Msg("adopt failed")
					continue
				}
				log.Info().Str("id", id).Str("path", path).Msg("adopted manual drop")
			}
		}
	}
}
