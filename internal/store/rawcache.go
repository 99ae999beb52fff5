package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"encbot/internal/logging"
)

// Origin tags how a cache entry entered the registry.
const (
	OriginDownloaded = "downloaded"
	OriginManual     = "manual"
)

// CacheEntry is one raw input file.
type CacheEntry struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Added  string `json:"added"`
	Origin string `json:"origin,omitempty"`
}

// RawCache is the id-keyed registry of downloaded source files. Ids are
// monotonically assigned decimal strings and never reused.
type RawCache struct {
	mu        sync.Mutex
	path      string // registry file
	manualDir string // manual-drop folder adopted on load and on demand
	entries   map[string]CacheEntry
	lastID    int // highest id ever assigned; ids are never reused
}

// videoExts are the manual-drop extensions worth adopting.
var videoExts = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".ts": true, ".webm": true, ".mov": true,
}

// OpenRawCache loads the registry, prunes entries whose file is gone, and
// adopts unseen files from the manual-drop folder.
func OpenRawCache(registryPath, manualDir string) (*RawCache, error) {
	c := &RawCache{
		path:      registryPath,
		manualDir: manualDir,
		entries:   make(map[string]CacheEntry),
	}
	if _, err := loadJSON(registryPath, &c.entries); err != nil {
		return nil, err
	}

	pruned := 0
	for id, e := range c.entries {
		if _, err := os.Stat(e.Path); err != nil {
			delete(c.entries, id)
			pruned++
		}
	}
	if pruned > 0 {
		log := logging.WithComponent("rawcache")
		log.Info().Int("pruned", pruned).Msg("dropped stale entries")
		if err := c.saveLocked(); err != nil {
			return nil, err
		}
	}
	if err := c.ScanManual(); err != nil {
		return nil, err
	}
	return c, nil
}

// Add registers a file under a fresh id (max existing + 1) and returns it.
// A path already present keeps its id.
func (c *RawCache) Add(path, name, origin string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addLocked(path, name, origin)
}

func (c *RawCache) addLocked(path, name, origin string) (string, error) {
	for id, e := range c.entries {
		if e.Path == path {
			return id, nil
		}
	}
	var size int64
	if fi, err := os.Stat(path); err == nil {
		size = fi.Size()
	}
	id := c.nextIDLocked()
	c.entries[id] = CacheEntry{
		Path:   path,
		Name:   name,
		Size:   size,
		Added:  time.Now().Format(time.RFC3339),
		Origin: origin,
	}
	return id, c.saveLocked()
}

func (c *RawCache) nextIDLocked() string {
	max := c.lastID
	for id := range c.entries {
		if n, err := strconv.Atoi(id); err == nil && n > max {
			max = n
		}
	}
	c.lastID = max + 1
	return strconv.Itoa(c.lastID)
}

// Get returns an entry by id.
func (c *RawCache) Get(id string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// List returns ids and entries sorted by numeric id.
func (c *RawCache) List() ([]string, []CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})
	entries := make([]CacheEntry, len(ids))
	for i, id := range ids {
		entries[i] = c.entries[id]
	}
	return ids, entries
}

// Remove drops one entry and deletes its file.
func (c *RawCache) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return fmt.Errorf("cache id %s not found", id)
	}
	_ = os.Remove(e.Path)
	delete(c.entries, id)
	return c.saveLocked()
}

// Clear deletes every entry and its file. Ids assigned during this process
// run are not reused afterwards.
func (c *RawCache) Clear() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	for id, e := range c.entries {
		_ = os.Remove(e.Path)
		delete(c.entries, id)
	}
	return n, c.saveLocked()
}

// ScanManual adopts unseen video files from the manual-drop folder.
func (c *RawCache) ScanManual() error {
	if c.manualDir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.manualDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scan manual folder: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ent := range entries {
		if ent.IsDir() || !videoExts[strings.ToLower(filepath.Ext(ent.Name()))] {
			continue
		}
		path := filepath.Join(c.manualDir, ent.Name())
		if _, err := c.addLocked(path, ent.Name(), OriginManual); err != nil {
			return err
		}
	}
	return nil
}

func (c *RawCache) saveLocked() error {
	return saveJSON(c.path, c.entries)
}
