// Package naming derives output filenames from source names: series
// episodes get a canonical Title.SxxExx form, everything else is stripped
// of release tags, and the resolution tag is appended.
package naming

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	seriesRe = regexp.MustCompile(`(.+?)[.\s][sS](\d+)[eE](\d+)`)

	// Release tags stripped from non-series names.
	tagRe = regexp.MustCompile(`(?i)\b(2160p|1080p|720p|480p|360p|x26[45]|h26[45]|hevc|web-?dl|web-?rip|blu-?ray|bdrip|hdtv|amzn|nf|dsnp|10bit|hdr|aac|ddp?5\.1|dual.?audio)\b`)

	multiDotRe = regexp.MustCompile(`\.{2,}`)
)

// Output builds the final output filename for a resolution, e.g.
// "Show.Name.E05.720p.mp4" or "Some.Movie.1080p.mp4".
func Output(name, res string) string {
	base := stripExt(name)

	if m := seriesRe.FindStringSubmatch(base); m != nil {
		title := strings.ReplaceAll(strings.TrimSpace(m[1]), " ", ".")
		season, _ := strconv.Atoi(m[2])
		episode, _ := strconv.Atoi(m[3])
		if season == 1 {
			return fmt.Sprintf("%s.E%02d.%s.mp4", title, episode, res)
		}
		return fmt.Sprintf("%s.S%02dE%02d.%s.mp4", title, season, episode, res)
	}

	cleaned := tagRe.ReplaceAllString(base, "")
	cleaned = strings.NewReplacer(" ", ".", "_", ".", "-", ".").Replace(cleaned)
	cleaned = multiDotRe.ReplaceAllString(cleaned, ".")
	cleaned = strings.Trim(cleaned, ". ")
	if cleaned == "" {
		cleaned = "video"
	}
	return fmt.Sprintf("%s.%s.mp4", cleaned, res)
}

func stripExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		ext := name[i+1:]
		if len(ext) >= 2 && len(ext) <= 4 {
			return name[:i]
		}
	}
	return name
}

// FromURL derives a best-effort display name from a URL: the decoded last
// path segment, query stripped, duplicate extensions collapsed. For Drive
// file links the file id is used.
func FromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return Sanitize(raw)
	}
	if strings.Contains(u.Host, "drive.google.com") {
		if id := driveFileID(u); id != "" {
			return id + ".mkv"
		}
	}
	seg := path.Base(u.Path)
	if dec, derr := url.PathUnescape(seg); derr == nil {
		seg = dec
	}
	seg = collapseExt(seg)
	if seg == "" || seg == "/" || seg == "." {
		return "video.mkv"
	}
	return Sanitize(seg)
}

// DriveFileID extracts the file id from a Drive share link, or "" when
// raw is not one.
func DriveFileID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return driveFileID(u)
}

func driveFileID(u *url.URL) string {
	if id := u.Query().Get("id"); id != "" {
		return id
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "d" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// collapseExt folds doubled extensions like "name.mkv.mkv" into one.
func collapseExt(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return name
	}
	rest := strings.TrimSuffix(name, ext)
	for strings.HasSuffix(rest, ext) {
		rest = strings.TrimSuffix(rest, ext)
	}
	return rest + ext
}

// Sanitize cleans a string to be safe as a filename: forbidden characters
// become underscores, runs collapse, length is capped at 200 runes.
func Sanitize(s string) string {
	if s == "" {
		return "untitled"
	}
	forbidden := `[]/\:*?"<>|#%{}$!@+^~` + "`" + `=&;`
	for _, r := range forbidden {
		s = strings.ReplaceAll(s, string(r), "_")
	}
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "._-")

	const maxRunes = 200
	if utf8.RuneCountInString(s) > maxRunes {
		var b strings.Builder
		count := 0
		for _, r := range s {
			if count >= maxRunes {
				break
			}
			b.WriteRune(r)
			count++
		}
		s = b.String()
	}
	if s == "" {
		return "untitled"
	}
	return s
}
