package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRawCacheAddAssignsSequentialIDs(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenRawCache(filepath.Join(dir, "cache.json"), "")
	if err != nil {
		t.Fatal(err)
	}
	a := filepath.Join(dir, "a.mkv")
	b := filepath.Join(dir, "b.mkv")
	writeFile(t, a)
	writeFile(t, b)

	id1, err := c.Add(a, "a.mkv", OriginDownloaded)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := c.Add(b, "b.mkv", OriginDownloaded)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != "1" || id2 != "2" {
		t.Fatalf("ids = %s, %s, want 1, 2", id1, id2)
	}
}

func TestRawCacheAddSamePathKeepsID(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenRawCache(filepath.Join(dir, "cache.json"), "")
	if err != nil {
		t.Fatal(err)
	}
	a := filepath.Join(dir, "a.mkv")
	writeFile(t, a)

	id1, _ := c.Add(a, "a.mkv", OriginDownloaded)
	id2, _ := c.Add(a, "a.mkv", OriginDownloaded)
	if id1 != id2 {
		t.Fatalf("same path got ids %s and %s", id1, id2)
	}
	ids, _ := c.List()
	if len(ids) != 1 {
		t.Fatalf("List returned %d entries, want 1", len(ids))
	}
}

func TestRawCacheIDsNeverReused(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenRawCache(filepath.Join(dir, "cache.json"), "")
	if err != nil {
		t.Fatal(err)
	}
	a := filepath.Join(dir, "a.mkv")
	writeFile(t, a)
	id1, _ := c.Add(a, "a.mkv", OriginDownloaded)

	if _, err := c.Clear(); err != nil {
		t.Fatal(err)
	}

	writeFile(t, a)
	id2, _ := c.Add(a, "a.mkv", OriginDownloaded)
	if id2 == id1 {
		t.Fatalf("id %s reused after clear", id2)
	}
	if id2 != "2" {
		t.Fatalf("id after clear = %s, want 2", id2)
	}
}

func TestRawCachePrunesMissingOnLoad(t *testing.T) {
	dir := t.TempDir()
	reg := filepath.Join(dir, "cache.json")
	a := filepath.Join(dir, "a.mkv")
	b := filepath.Join(dir, "b.mkv")
	writeFile(t, a)
	writeFile(t, b)

	c, err := OpenRawCache(reg, "")
	if err != nil {
		t.Fatal(err)
	}
	c.Add(a, "a.mkv", OriginDownloaded)
	c.Add(b, "b.mkv", OriginDownloaded)

	os.Remove(a)

	c2, err := OpenRawCache(reg, "")
	if err != nil {
		t.Fatal(err)
	}
	ids, entries := c2.List()
	if len(ids) != 1 {
		t.Fatalf("after prune List returned %d entries, want 1", len(ids))
	}
	if entries[0].Path != b {
		t.Fatalf("surviving entry = %s, want %s", entries[0].Path, b)
	}
}

func TestRawCachePrunedIDNotReassigned(t *testing.T) {
	dir := t.TempDir()
	reg := filepath.Join(dir, "cache.json")
	a := filepath.Join(dir, "a.mkv")
	b := filepath.Join(dir, "b.mkv")
	writeFile(t, a)
	writeFile(t, b)

	c, _ := OpenRawCache(reg, "")
	c.Add(a, "a.mkv", OriginDownloaded) // id 1
	c.Add(b, "b.mkv", OriginDownloaded) // id 2
	os.Remove(a)

	c2, err := OpenRawCache(reg, "")
	if err != nil {
		t.Fatal(err)
	}
	cPath := filepath.Join(dir, "c.mkv")
	writeFile(t, cPath)
	id, _ := c2.Add(cPath, "c.mkv", OriginDownloaded)
	if id != "3" {
		t.Fatalf("id after prune = %s, want 3", id)
	}
}

func TestRawCacheScanManualIdempotent(t *testing.T) {
	dir := t.TempDir()
	manual := filepath.Join(dir, "manual")
	if err := os.MkdirAll(manual, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(manual, "movie.mkv"))
	writeFile(t, filepath.Join(manual, "notes.txt"))

	c, err := OpenRawCache(filepath.Join(dir, "cache.json"), manual)
	if err != nil {
		t.Fatal(err)
	}
	ids, entries := c.List()
	if len(ids) != 1 {
		t.Fatalf("adopted %d entries, want 1", len(ids))
	}
	if entries[0].Origin != OriginManual {
		t.Fatalf("origin = %s, want %s", entries[0].Origin, OriginManual)
	}

	if err := c.ScanManual(); err != nil {
		t.Fatal(err)
	}
	ids, _ = c.List()
	if len(ids) != 1 {
		t.Fatalf("rescan duplicated entries: %d", len(ids))
	}
}

func TestRawCacheRemoveDeletesFile(t *testing.T) {
	dir := t.TempDir()
	c, _ := OpenRawCache(filepath.Join(dir, "cache.json"), "")
	a := filepath.Join(dir, "a.mkv")
	writeFile(t, a)
	id, _ := c.Add(a, "a.mkv", OriginDownloaded)

	if err := c.Remove(id); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Fatal("file still present after Remove")
	}
	if _, ok := c.Get(id); ok {
		t.Fatal("entry still present after Remove")
	}
}

func TestRawCacheSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	reg := filepath.Join(dir, "cache.json")
	a := filepath.Join(dir, "a.mkv")
	writeFile(t, a)

	c, _ := OpenRawCache(reg, "")
	id, _ := c.Add(a, "Movie.S01E01.mkv", OriginDownloaded)

	c2, err := OpenRawCache(reg, "")
	if err != nil {
		t.Fatal(err)
	}
	e, ok := c2.Get(id)
	if !ok {
		t.Fatalf("entry %s lost on reload", id)
	}
	if e.Name != "Movie.S01E01.mkv" || e.Path != a {
		t.Fatalf("reloaded entry = %+v", e)
	}
}
