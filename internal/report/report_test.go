package report

import (
	"strings"
	"testing"

	"encbot/internal/store"
)

func rec(filename, quality string, links map[string]string) store.ResultRecord {
	return store.ResultRecord{Filename: filename, Quality: quality, Links: links}
}

func TestByTitleGroupsAndOrders(t *testing.T) {
	history := []store.ResultRecord{
		rec("My.Show.E02.720p.mp4", "720p", map[string]string{
			"buzzheavier": "https://buzzheavier.com/b2",
			"gofile":      "https://gofile.io/d/g2",
		}),
		rec("My.Show.E01.1080p.mp4", "1080p", map[string]string{
			"turbovid":    "https://turbovidhls.com/t/v1",
			"abyss":       "https://short.icu/a1",
			"buzzheavier": "https://buzzheavier.com/b1",
			"mirrored":    "https://mirrored.to/f/m1",
			"filepress":   "https://fp.example/file/f1",
		}),
		rec("My.Show.E01.720p.mp4", "720p", map[string]string{
			"gofile": "https://gofile.io/d/g1",
		}),
	}

	out := ByTitle(history)
	body, ok := out["My.Show"]
	if !ok {
		t.Fatalf("titles = %v, want My.Show", keys(out))
	}

	lines := strings.Split(body, "\n")
	if lines[0] != "https://turbovidhls.com/t/v1 - My.Show.E01.1080p.mp4" {
		t.Fatalf("first line = %q, want turbovid url - filename", lines[0])
	}
	if !strings.Contains(body, "My.Show.E01.1080p.mp4|https://short.icu/a1") {
		t.Fatal("abyss line missing or wrong format")
	}

	// E01 before E02, 1080p before 720p, buzzheavier before mirrored.
	idx := func(s string) int { return strings.Index(body, s) }
	if !(idx("My.Show.E01") < idx("My.Show.E02")) {
		t.Fatal("episodes not in ascending order")
	}
	dl := body[idx("Download Link"):]
	if !(strings.Index(dl, "1080p") < strings.Index(dl, "720p")) {
		t.Fatal("qualities not descending")
	}
	if !(strings.Index(dl, "buzzheavier.com/b1") < strings.Index(dl, "mirrored.to/f/m1")) {
		t.Fatal("server order wrong")
	}
}

func TestByTitleEmptyHistory(t *testing.T) {
	out := ByTitle(nil)
	if len(out) != 0 {
		t.Fatalf("out = %v, want empty", out)
	}
}

func TestSingleServerFiltersAndRanges(t *testing.T) {
	history := []store.ResultRecord{
		rec("My.Show.E01.1080p.mp4", "1080p", map[string]string{"gdrive": "https://drive.google.com/file/d/a/view"}),
		rec("My.Show.E03.1080p.mp4", "1080p", map[string]string{"gdrive": "https://drive.google.com/file/d/c/view"}),
		rec("My.Show.E02.720p.mp4", "720p", map[string]string{"gdrive": "https://drive.google.com/file/d/b/view"}),
		rec("My.Show.E04.1080p.mp4", "1080p", map[string]string{"seedbox": "https://box/dl/d"}),
	}

	out := SingleServer(history, "gdrive")
	if !strings.Contains(out, "My Show") {
		t.Fatalf("title header missing: %q", out)
	}
	if !strings.Contains(out, "E01-E03 | 1080p") {
		t.Fatalf("episode range wrong: %q", out)
	}
	if strings.Contains(out, "/d/b/") {
		t.Fatal("720p record leaked into 1080p report")
	}
	if strings.Contains(out, "box/dl/d") {
		t.Fatal("seedbox link leaked into gdrive report")
	}
	// Links sorted by episode.
	if !(strings.Index(out, "/d/a/") < strings.Index(out, "/d/c/")) {
		t.Fatal("links not in episode order")
	}
}

func TestSingleServerSingleEpisodeRange(t *testing.T) {
	history := []store.ResultRecord{
		rec("My.Show.E05.1080p.mp4", "1080p", map[string]string{"seedbox": "https://box/dl/e5"}),
	}
	out := SingleServer(history, "seedbox")
	if !strings.Contains(out, "E05 | 1080p") {
		t.Fatalf("single-episode header wrong: %q", out)
	}
}

func TestSingleServerEmpty(t *testing.T) {
	if out := SingleServer(nil, "gdrive"); out != "" {
		t.Fatalf("out = %q, want empty", out)
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
