package console

import (
	"fmt"
	"sort"
	"strings"

	"encbot/internal/progress"
	"encbot/internal/util/format"
)

func (m Model) View() string {
	if m.quit {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")
	for _, id := range m.jobOrder {
		b.WriteString(m.viewJob(m.jobs[id]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewHeader() string {
	done, total := 0, len(m.jobOrder)
	for _, id := range m.jobOrder {
		if m.jobs[id].done {
			done++
		}
	}
	title := m.styles.Title.Render("encbot")
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Jobs: %d/%d done • q: quit", done, total))
	return title + "\n" + sub
}

func (m Model) viewJob(js *jobState) string {
	stageStyle := m.styles.JobInfo
	switch js.stage {
	case progress.StageDownloading:
		stageStyle = m.styles.StageDL
	case progress.StageEncoding:
		stageStyle = m.styles.StageEnc
	case progress.StageUploading, progress.StageFinalizing:
		stageStyle = m.styles.StageUp
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageSuspended:
		stageStyle = m.styles.Warning
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	name := js.name
	if name == "" {
		name = js.id
	}
	line1 := fmt.Sprintf("%s  %s", m.styles.JobTitle.Render(truncate(name, 48)), stageStyle.Render(string(js.stage)))

	var lines []string
	lines = append(lines, line1)

	if js.stage == progress.StageDownloading && js.downloadPct >= 0 {
		row := fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.downloadPct/100.0), js.downloadPct)
		if js.speed != "" {
			row += "  " + m.styles.Faint.Render(js.speed)
		}
		lines = append(lines, row)
	}

	for _, e := range js.encodes {
		row := fmt.Sprintf("%-6s %s %5.1f%%  %s", e.resolution, js.bar.ViewAs(e.percent/100.0), e.percent, m.styles.Faint.Render(e.status))
		if e.eta != "" {
			row += "  " + m.styles.Faint.Render("eta "+e.eta)
		}
		lines = append(lines, row)
	}

	if rows := js.hostLines(m.styles); len(rows) > 0 {
		lines = append(lines, rows...)
	}

	switch {
	case js.done && js.err == nil:
		msg := m.styles.Success.Render("✓ done")
		if js.outputPath != "" {
			msg += "  " + m.styles.Faint.Render(fmt.Sprintf("%s (%s)", js.outputPath, format.HumanizeBytes(js.bytes)))
		}
		lines = append(lines, msg)
	case js.err != nil:
		lines = append(lines, m.styles.Error.Render("✗ "+js.err.Error()))
	case js.status != "":
		lines = append(lines, m.styles.JobInfo.Render(js.status))
	default:
		lines = append(lines, m.styles.Spinner.Render(js.spinner.View())+" "+m.styles.Faint.Render("working"))
	}

	return m.styles.Box.Render(strings.Join(lines, "\n"))
}

func (js *jobState) hostLines(sty Styles) []string {
	if len(js.hosts) == 0 {
		return nil
	}
	rows := append([]hostRow(nil), js.hosts...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].host < rows[j].host })

	out := make([]string, 0, len(rows))
	for _, h := range rows {
		var mark string
		switch h.state {
		case progress.HostSuccess:
			mark = sty.Success.Render("✓")
		case progress.HostFailed:
			mark = sty.Error.Render("✗")
		case progress.HostSkipped:
			mark = sty.Warning.Render("-")
		case progress.HostRunning:
			mark = sty.StageUp.Render("↑")
		default:
			mark = sty.Faint.Render("·")
		}
		detail := h.url
		if detail == "" {
			detail = h.reason
		}
		out = append(out, fmt.Sprintf("  %s %-12s %s", mark, h.host, sty.Faint.Render(detail)))
	}
	return out
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
