package encoder

import (
	"fmt"
	"strings"
)

// Subtitle is the resolved subtitle source for an encode. StreamIndex is
// the subtitle stream inside Path when Path is the input video itself;
// -1 means Path is an external subtitle file.
type Subtitle struct {
	Path        string
	StreamIndex int
}

// External reports whether the subtitle comes from a standalone file.
func (s Subtitle) External() bool {
	return s.StreamIndex < 0
}

// filterChain builds the -vf argument: scale, burned subtitles, optional
// watermark.
func filterChain(res string, sub Subtitle, rec Recipe) string {
	parts := []string{
		fmt.Sprintf("scale=-2:%d", heights[res]),
		subtitlesFilter(sub, rec.Style),
	}
	if rec.Watermark.Enabled && rec.Watermark.Text != "" {
		parts = append(parts, drawtextFilter(res, rec.Watermark))
	}
	return strings.Join(parts, ",")
}

func subtitlesFilter(sub Subtitle, st Style) string {
	src := escapeFilterPath(sub.Path)
	f := "subtitles=" + src
	if !sub.External() {
		f += fmt.Sprintf(":si=%d", sub.StreamIndex)
	}
	bold := 0
	if st.Bold {
		bold = 1
	}
	f += fmt.Sprintf(
		":force_style='FontName=%s,FontSize=%d,Bold=%d,MarginV=%d,BorderStyle=1,Outline=1,PrimaryColour=&H00FFFFFF'",
		st.FontName, st.FontSize, bold, st.MarginV,
	)
	return f
}

// drawtextFilter renders the watermark: centered near the top, fading in
// over the first second and out over the last two seconds of its window.
func drawtextFilter(res string, wm Watermark) string {
	size := watermarkFontSize[res]
	if size == 0 {
		size = 24
	}
	d := wm.Duration
	if d <= 0 {
		d = 30
	}
	return fmt.Sprintf(
		"drawtext=fontfile=%s:text='%s':fontcolor=yellow:fontsize=%d:borderw=1:bordercolor=black:x=(w-text_w)/2:y=20"+
			":alpha='if(lt(t,1),t,if(gt(t,%d-2),(%d-t)/2,1))':enable='lt(t,%d)'",
		escapeFilterPath(wm.FontPath), escapeDrawtext(wm.Text), size, d, d, d,
	)
}

// escapeFilterPath escapes a path for use inside a filter graph argument.
func escapeFilterPath(p string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
		`,`, `\,`,
	)
	return r.Replace(p)
}

// escapeDrawtext escapes literal text for drawtext's quoted text option.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\\\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}
