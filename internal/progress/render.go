package progress

import (
	"fmt"
	"sort"
	"strings"

	"encbot/internal/util/format"
)

// RenderText renders a snapshot view as the plain-text dashboard posted to
// the status message. Pure function of the view.
func RenderText(v View, load SysLoad) string {
	var b strings.Builder

	fmt.Fprintf(&b, "⚙️ %s\n", v.Filename)
	fmt.Fprintf(&b, "Job: %s | Phase: %s | Elapsed: %s\n", v.Kind, v.Stage, format.Clock(v.Elapsed))

	switch v.Stage {
	case StageDownloading:
		line := fmt.Sprintf("⬇️ %.1f%%", clampPct(v.Download.Percent))
		if v.Download.TotalBytes > 0 {
			line += " of " + format.HumanizeBytes(v.Download.TotalBytes)
		}
		if v.Download.Speed != "" {
			line += " at " + v.Download.Speed
		}
		if v.Download.ETA != "" {
			line += " ETA " + v.Download.ETA
		}
		b.WriteString(line)
		b.WriteByte('\n')
	case StageEncoding, StageUploading, StageFinalizing:
		for _, e := range v.Encodes {
			switch e.Status {
			case "waiting":
				fmt.Fprintf(&b, "▫️ %s: waiting\n", e.Resolution)
			case "done":
				fmt.Fprintf(&b, "✅ %s: done\n", e.Resolution)
			case "failed":
				fmt.Fprintf(&b, "❌ %s: failed\n", e.Resolution)
			default:
				line := fmt.Sprintf("🎞 %s: %s %.1f%% %s", e.Resolution, e.Status, clampPct(e.Percent), bar(e.Percent, 12))
				if e.ETA != "" {
					line += " ETA " + e.ETA
				}
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
	}

	if len(v.Uploads) > 0 {
		resolutions := make([]string, 0, len(v.Uploads))
		for res := range v.Uploads {
			resolutions = append(resolutions, res)
		}
		sort.Strings(resolutions)
		for _, res := range resolutions {
			var done, total int
			for _, h := range v.Uploads[res] {
				total++
				if h.State == HostSuccess || h.State == HostFailed || h.State == HostSkipped {
					done++
				}
			}
			fmt.Fprintf(&b, "⬆️ %s uploads: %d/%d hosts done\n", res, done, total)
		}
	}

	if load.CPUs > 0 {
		fmt.Fprintf(&b, "🖥 load %.2f / %d cpu | ram %s free\n",
			load.Load1, load.CPUs, format.HumanizeBytes(load.FreeRAM))
	}
	return strings.TrimRight(b.String(), "\n")
}

func clampPct(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func bar(pct float64, width int) string {
	pct = clampPct(pct)
	filled := int(pct / 100 * float64(width))
	return "[" + strings.Repeat("■", filled) + strings.Repeat("□", width-filled) + "]"
}
