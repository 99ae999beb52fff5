// Package report renders the encode history into shareable link lists.
package report

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"encbot/internal/hosts"
	"encbot/internal/store"
)

// episodeRe matches the canonical output naming, Title.E01.1080p.mp4.
var episodeRe = regexp.MustCompile(`^(.+?)\.E(\d+)\.(\d+p)\.mp4$`)

var qualityRank = map[string]int{"1080p": 0, "720p": 1, "480p": 2, "360p": 3}

// downloadServers are the hosts listed in the per-episode download block,
// in display order.
var downloadServers = []string{
	hosts.NameBuzzheavier, hosts.NameMirrored, hosts.NameFilePress, hosts.NameGofile,
}

// ByTitle groups history records per series title. TurboVid links come
// first as "url - filename", Abyss links as "filename|url", then a
// download block per episode ordered by quality and a fixed server order.
func ByTitle(records []store.ResultRecord) map[string]string {
	type pair struct{ name, url string }
	type group struct {
		turbovid []pair
		abyss    []pair
		// episode base -> quality -> server -> url
		episodes map[string]map[string]map[string]string
	}
	titles := make(map[string]*group)
	get := func(title string) *group {
		g, ok := titles[title]
		if !ok {
			g = &group{episodes: make(map[string]map[string]map[string]string)}
			titles[title] = g
		}
		return g
	}

	for _, rec := range records {
		title, epBase := splitTitle(rec.Filename)
		g := get(title)
		if u := rec.Links[hosts.NameTurboVid]; u != "" {
			g.turbovid = append(g.turbovid, pair{rec.Filename, u})
		}
		if u := rec.Links[hosts.NameAbyss]; u != "" {
			g.abyss = append(g.abyss, pair{rec.Filename, u})
		}
		for _, server := range downloadServers {
			u := rec.Links[server]
			if u == "" {
				continue
			}
			if g.episodes[epBase] == nil {
				g.episodes[epBase] = make(map[string]map[string]string)
			}
			if g.episodes[epBase][rec.Quality] == nil {
				g.episodes[epBase][rec.Quality] = make(map[string]string)
			}
			g.episodes[epBase][rec.Quality][server] = u
		}
	}
	if len(titles) == 0 {
		return map[string]string{}
	}

	out := make(map[string]string, len(titles))
	for title, g := range titles {
		var lines []string

		sort.Slice(g.turbovid, func(i, j int) bool { return g.turbovid[i].name < g.turbovid[j].name })
		for _, p := range g.turbovid {
			lines = append(lines, p.url+" - "+p.name)
		}
		if len(g.turbovid) > 0 {
			lines = append(lines, "")
		}

		sort.Slice(g.abyss, func(i, j int) bool { return g.abyss[i].name < g.abyss[j].name })
		for _, p := range g.abyss {
			lines = append(lines, p.name+"|"+p.url)
		}
		if len(g.abyss) > 0 {
			lines = append(lines, "")
		}

		lines = append(lines, "Download Link")
		eps := make([]string, 0, len(g.episodes))
		for ep := range g.episodes {
			eps = append(eps, ep)
		}
		sort.Slice(eps, func(i, j int) bool { return episodeNumber(eps[i]) < episodeNumber(eps[j]) })
		for _, ep := range eps {
			lines = append(lines, "\n"+ep)
			quals := make([]string, 0, len(g.episodes[ep]))
			for q := range g.episodes[ep] {
				quals = append(quals, q)
			}
			sort.Slice(quals, func(i, j int) bool { return rank(quals[i]) < rank(quals[j]) })
			for _, q := range quals {
				lines = append(lines, q)
				for _, server := range downloadServers {
					if u, ok := g.episodes[ep][q][server]; ok {
						lines = append(lines, u)
					}
				}
			}
		}
		out[title] = strings.Join(lines, "\n")
	}
	return out
}

// SingleServer renders the 1080p links of one host (gdrive or seedbox)
// grouped by title with an episode-range header. Empty string when the
// history holds nothing for it.
func SingleServer(records []store.ResultRecord, server string) string {
	type item struct {
		episode int
		quality string
		link    string
	}
	titles := make(map[string][]item)
	for _, rec := range records {
		if rec.Quality != "1080p" {
			continue
		}
		link := rec.Links[server]
		if link == "" {
			continue
		}
		title, episode := titleAndEpisode(rec.Filename)
		titles[title] = append(titles[title], item{episode, rec.Quality, link})
	}
	if len(titles) == 0 {
		return ""
	}

	names := make([]string, 0, len(titles))
	for t := range titles {
		names = append(names, t)
	}
	sort.Strings(names)

	var lines []string
	for _, title := range names {
		items := titles[title]
		sort.Slice(items, func(i, j int) bool { return items[i].episode < items[j].episode })

		min, max := 0, 0
		for _, it := range items {
			if it.episode <= 0 {
				continue
			}
			if min == 0 || it.episode < min {
				min = it.episode
			}
			if it.episode > max {
				max = it.episode
			}
		}
		lines = append(lines, "\n"+title)
		if min > 0 {
			rangeStr := fmt.Sprintf("E%02d", min)
			if max != min {
				rangeStr = fmt.Sprintf("E%02d-E%02d", min, max)
			}
			lines = append(lines, rangeStr+" | 1080p")
		}
		lines = append(lines, "")
		for _, it := range items {
			lines = append(lines, it.link)
		}
	}
	return strings.Join(lines, "\n")
}

// splitTitle derives the series title and the episode base (title plus
// zero-padded episode) from an output filename.
func splitTitle(filename string) (title, episodeBase string) {
	if m := episodeRe.FindStringSubmatch(filename); m != nil {
		n, _ := strconv.Atoi(m[2])
		return m[1], fmt.Sprintf("%s.E%02d", m[1], n)
	}
	title = filename
	if i := strings.Index(filename, "."); i > 0 {
		parts := strings.Split(filename, ".")
		if len(parts) > 3 {
			title = strings.Join(parts[:len(parts)-3], ".")
		}
		if len(parts) > 2 {
			episodeBase = strings.Join(parts[:len(parts)-2], ".")
		} else {
			episodeBase = filename
		}
		return title, episodeBase
	}
	return filename, filename
}

// titleAndEpisode is the single-server variant: dots become spaces.
func titleAndEpisode(filename string) (string, int) {
	if m := episodeRe.FindStringSubmatch(filename); m != nil {
		n, _ := strconv.Atoi(m[2])
		return strings.ReplaceAll(m[1], ".", " "), n
	}
	title := filename
	if parts := strings.Split(filename, "."); len(parts) > 2 {
		title = strings.Join(parts[:len(parts)-2], ".")
	}
	return strings.ReplaceAll(title, ".", " "), 0
}

func episodeNumber(episodeBase string) int {
	m := regexp.MustCompile(`E(\d+)`).FindStringSubmatch(episodeBase)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func rank(quality string) int {
	if r, ok := qualityRank[quality]; ok {
		return r
	}
	return 99
}
