package bot

import (
	"regexp"
	"strings"
	"time"

	"encbot/internal/store"
)

var qualityRe = regexp.MustCompile(`\.(\d{3,4}p)\.mp4$`)

// knownHosts are the link keys a result message may carry.
var knownHosts = map[string]bool{
	"seedbox": true, "gdrive": true, "mirrored": true, "buzzheavier": true,
	"gofile": true, "filepress": true, "turbovid": true, "abyss": true, "vidhide": true,
}

// ParseResultMessage reads a posted result message back into a history
// record: a filename header line followed by "host: url" lines.
func ParseResultMessage(text string) (store.ResultRecord, bool) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 {
		return store.ResultRecord{}, false
	}

	name := strings.TrimSpace(strings.TrimPrefix(lines[0], "📦"))
	if name == "" {
		return store.ResultRecord{}, false
	}

	links := make(store.ResultLinks)
	for _, line := range lines[1:] {
		host, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		host = strings.ToLower(strings.TrimSpace(host))
		url := strings.TrimSpace(rest)
		if !knownHosts[host] || !strings.HasPrefix(url, "http") {
			continue
		}
		links[host] = url
	}
	if len(links) == 0 {
		return store.ResultRecord{}, false
	}

	quality := ""
	if m := qualityRe.FindStringSubmatch(name); m != nil {
		quality = m[1]
	}
	return store.ResultRecord{
		Filename:  name,
		Quality:   quality,
		Timestamp: time.Now().Format(time.RFC3339),
		Links:     links,
	}, true
}
