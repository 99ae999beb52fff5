package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"encbot/internal/encoder"
	"encbot/internal/job"
	"encbot/internal/store"
	"encbot/internal/transport"
)

// flowStep is one waiting point of the interactive encode setup.
type flowStep int

const (
	stepNone flowStep = iota
	stepTemplate
	stepResolutions
	stepTplCRF
	stepAudio
	stepMode
	stepCRF
	stepFont
	stepMargin
	stepSubtitle
	stepAwaitSrt
	stepBrowse
)

// flow is one user's in-progress setup dialogue. A user has at most one.
type flow struct {
	step     flowStep
	url      string
	cacheIDs []string
	recipe   encoder.Recipe
	resSel   map[string]bool

	// template creation
	creating bool
	resCRF   map[string]string
	crfQueue []string

	browseFiles []string
}

func (b *Bot) setFlow(owner int64, f *flow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flows[owner] = f
}

func (b *Bot) getFlow(owner int64) *flow {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flows[owner]
}

func (b *Bot) clearFlow(owner int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.flows, owner)
}

// startEncodeFlow opens the template picker for a URL or a set of cache
// ids.
func (b *Bot) startEncodeFlow(owner int64, url string, cacheIDs []string) {
	f := &flow{
		step:     stepTemplate,
		url:      url,
		cacheIDs: cacheIDs,
		recipe:   b.baseRecipe(),
		resSel:   make(map[string]bool),
	}
	b.setFlow(owner, f)

	keys, tpls := b.templates.List()
	var sb strings.Builder
	sb.WriteString("🎛 pick a template:\n")
	for i, k := range keys {
		fmt.Fprintf(&sb, "[%s] %s\n", k, tpls[i].Name)
	}
	sb.WriteString("[manual] configure by hand\n[cancel]")
	b.reply(owner, sb.String())
}

// startTemplateFlow opens the manual steps in template-creation mode.
func (b *Bot) startTemplateFlow(owner int64) {
	f := &flow{
		step:     stepResolutions,
		creating: true,
		recipe:   b.baseRecipe(),
		resSel:   make(map[string]bool),
		resCRF:   make(map[string]string),
	}
	b.setFlow(owner, f)
	b.promptResolutions(owner)
}

func (b *Bot) promptResolutions(owner int64) {
	b.reply(owner, "📐 toggle resolutions, then [done]: [360p] [480p] [720p] [1080p] [done] [cancel]")
}

func (b *Bot) handleCallback(ctx context.Context, u transport.Update) {
	f := b.getFlow(u.Owner)
	if f == nil {
		return
	}
	data := strings.TrimSpace(u.Callback)
	if data == "cancel" {
		b.clearFlow(u.Owner)
		b.reply(u.Owner, "🚫 cancelled")
		return
	}

	switch f.step {
	case stepTemplate:
		b.stepTemplatePick(u.Owner, f, data)
	case stepResolutions:
		b.stepResolutionToggle(u.Owner, f, data)
	case stepTplCRF:
		b.stepTemplateCRF(u.Owner, f, data)
	case stepAudio:
		if v := strings.TrimPrefix(data, "audio_"); v != data {
			f.recipe.Audio = encoder.ParseAudio(v)
			f.step = stepMode
			b.reply(u.Owner, "🎚 mode: [mode_crf] [mode_2pass] [mode_mixed]")
		}
	case stepMode:
		if v := strings.TrimPrefix(data, "mode_"); v != data {
			f.recipe.Mode = encoder.ParseMode(v)
			if f.creating || len(f.resCRF) > 0 {
				f.step = stepFont
				b.reply(u.Owner, "🔤 font size: [font_14] [font_15] [font_16] [font_17] [font_18] [font_20]")
				return
			}
			f.step = stepCRF
			b.reply(u.Owner, "🎯 CRF: [crf_22] [crf_23] [crf_24] [crf_25] [crf_26] [crf_28]")
		}
	case stepCRF:
		if v := strings.TrimPrefix(data, "crf_"); v != data && validCRF(v) {
			f.recipe.CRF = v
			f.step = stepFont
			b.reply(u.Owner, "🔤 font size: [font_14] [font_15] [font_16] [font_17] [font_18] [font_20]")
		}
	case stepFont:
		if v := strings.TrimPrefix(data, "font_"); v != data {
			if n, err := strconv.Atoi(v); err == nil {
				f.recipe.Style.FontSize = n
				f.step = stepMargin
				b.reply(u.Owner, "↕️ bottom margin: [margin_8] [margin_10] [margin_15] [margin_20] [margin_25] [margin_40]")
			}
		}
	case stepMargin:
		if v := strings.TrimPrefix(data, "margin_"); v != data {
			if n, err := strconv.Atoi(v); err == nil {
				f.recipe.Style.MarginV = n
				if f.creating {
					b.saveTemplate(u.Owner, f)
					return
				}
				f.step = stepSubtitle
				b.reply(u.Owner, "💬 subtitle: [sub_auto] embedded auto-detect, [sub_ext] upload an .srt")
			}
		}
	case stepSubtitle:
		switch data {
		case "sub_auto":
			b.enqueueFlow(u.Owner, f)
		case "sub_ext":
			f.step = stepAwaitSrt
			b.reply(u.Owner, "📎 send the .srt file now")
		}
	}
}

// flowInput lets free text stand in for a callback (number lists, custom
// CRF values). Returns false when no flow is waiting for text.
func (b *Bot) flowInput(ctx context.Context, u transport.Update) bool {
	f := b.getFlow(u.Owner)
	if f == nil {
		return false
	}
	text := strings.TrimSpace(u.Text)
	switch f.step {
	case stepBrowse:
		b.stepBrowsePick(u.Owner, f, text)
		return true
	case stepCRF:
		if validCRF(text) {
			f.recipe.CRF = text
			f.step = stepFont
			b.reply(u.Owner, "🔤 font size: [font_14] [font_15] [font_16] [font_17] [font_18] [font_20]")
			return true
		}
	}
	return false
}

func (b *Bot) stepTemplatePick(owner int64, f *flow, data string) {
	if data == "manual" {
		f.step = stepResolutions
		b.promptResolutions(owner)
		return
	}
	key := strings.TrimPrefix(data, "tpl_")
	tpl, ok := b.templates.Get(key)
	if !ok {
		b.reply(owner, "❌ unknown template "+key)
		return
	}
	f.recipe.Resolutions = tpl.Resolutions
	f.recipe.ResCRF = tpl.ResCRF
	f.recipe.CRF = tpl.CRF
	f.recipe.VideoBitrate = tpl.CustomBitrate
	if tpl.Audio != "" {
		f.recipe.Audio = encoder.ParseAudio(tpl.Audio)
	}
	if tpl.Mode != "" {
		f.recipe.Mode = encoder.ParseMode(tpl.Mode)
	}
	if tpl.FontSize > 0 {
		f.recipe.Style.FontSize = tpl.FontSize
	}
	if tpl.MarginV > 0 {
		f.recipe.Style.MarginV = tpl.MarginV
	}
	f.step = stepSubtitle
	b.reply(owner, "💬 subtitle: [sub_auto] embedded auto-detect, [sub_ext] upload an .srt")
}

func (b *Bot) stepResolutionToggle(owner int64, f *flow, data string) {
	if data == "done" || data == "res_done" {
		if len(f.resSel) == 0 {
			b.reply(owner, "pick at least one resolution")
			return
		}
		f.recipe.Resolutions = selectedResolutions(f.resSel)
		if f.creating {
			f.crfQueue = append([]string(nil), f.recipe.Resolutions...)
			f.step = stepTplCRF
			b.promptTplCRF(owner, f)
			return
		}
		f.step = stepAudio
		b.reply(owner, "🔊 audio: [audio_he] HE-AAC, [audio_aac] AAC-LC")
		return
	}
	res := strings.TrimPrefix(data, "res_")
	if !encoder.KnownResolution(res) {
		return
	}
	if f.resSel[res] {
		delete(f.resSel, res)
	} else {
		f.resSel[res] = true
	}
	b.reply(owner, "selected: "+strings.Join(selectedResolutions(f.resSel), ", "))
}

func (b *Bot) promptTplCRF(owner int64, f *flow) {
	b.reply(owner, fmt.Sprintf("🎯 CRF for %s: [crf_22] [crf_23] [crf_24] [crf_25] [crf_26] [crf_28]", f.crfQueue[0]))
}

func (b *Bot) stepTemplateCRF(owner int64, f *flow, data string) {
	v := strings.TrimPrefix(data, "crf_")
	if v == data || !validCRF(v) {
		return
	}
	res := f.crfQueue[0]
	f.resCRF[res] = v
	f.crfQueue = f.crfQueue[1:]
	if len(f.crfQueue) > 0 {
		b.promptTplCRF(owner, f)
		return
	}
	f.recipe.ResCRF = f.resCRF
	f.step = stepAudio
	b.reply(owner, "🔊 audio: [audio_he] HE-AAC, [audio_aac] AAC-LC")
}

func (b *Bot) stepBrowsePick(owner int64, f *flow, text string) {
	var picked []string
	for _, part := range strings.Split(text, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > len(f.browseFiles) {
			b.reply(owner, "❌ bad selection, use numbers from the list")
			return
		}
		picked = append(picked, f.browseFiles[n-1])
	}
	if len(picked) == 0 {
		return
	}
	// Seedbox files enter the pipeline through their public share links.
	urls := make([]string, len(picked))
	for i, name := range picked {
		urls[i] = b.seedbox.PublicURL(name)
	}
	f.url = strings.Join(urls, ",")
	f.browseFiles = nil
	f.step = stepTemplate
	b.setFlow(owner, f)

	keys, tpls := b.templates.List()
	var sb strings.Builder
	sb.WriteString("🎛 pick a template:\n")
	for i, k := range keys {
		fmt.Fprintf(&sb, "[%s] %s\n", k, tpls[i].Name)
	}
	sb.WriteString("[manual] configure by hand\n[cancel]")
	b.reply(owner, sb.String())
}

// saveTemplate names and persists the template built by the flow.
func (b *Bot) saveTemplate(owner int64, f *flow) {
	defer b.clearFlow(owner)
	crfs := make([]string, 0, len(f.recipe.Resolutions))
	for _, res := range f.recipe.Resolutions {
		crfs = append(crfs, f.resCRF[res])
	}
	name := fmt.Sprintf("%s CRF %s %s F%d",
		strings.Join(f.recipe.Resolutions, " "),
		strings.Join(crfs, "/"),
		f.recipe.Audio,
		f.recipe.Style.FontSize)

	key, err := b.templates.Add(store.Template{
		Name:        name,
		Resolutions: f.recipe.Resolutions,
		ResCRF:      f.resCRF,
		CRF:         f.recipe.CRF,
		Audio:       string(f.recipe.Audio),
		Mode:        string(f.recipe.Mode),
		FontSize:    f.recipe.Style.FontSize,
		MarginV:     f.recipe.Style.MarginV,
	})
	if err != nil {
		b.reply(owner, fmt.Sprintf("❌ %v", err))
		return
	}
	b.reply(owner, fmt.Sprintf("✅ saved template %s: %s", key, name))
}

// enqueueFlow turns the finished flow into one job per source.
func (b *Bot) enqueueFlow(owner int64, f *flow) {
	defer b.clearFlow(owner)
	if len(f.recipe.Resolutions) == 0 {
		f.recipe.Resolutions = []string{"360p"}
	}

	if len(f.cacheIDs) > 0 {
		for _, id := range f.cacheIDs {
			j := job.New(owner, job.KindEncode)
			j.CacheID = id
			j.Recipe = f.recipe
			b.enqueue(j)
		}
		return
	}
	for _, url := range strings.Split(f.url, ",") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		j := job.New(owner, job.KindEncode)
		j.URL = url
		j.Recipe = f.recipe
		b.enqueue(j)
	}
}

// handleDocument consumes uploaded files: .srt resumes a suspension or
// finishes a flow waiting for one; video files go to the manual folder.
func (b *Bot) handleDocument(u transport.Update) {
	doc := u.Document
	ext := strings.ToLower(filepath.Ext(doc.Name))
	if ext == ".srt" || ext == ".ass" {
		if f := b.getFlow(u.Owner); f != nil && f.step == stepAwaitSrt {
			b.enqueueFlowWithSubtitle(u.Owner, f, doc.Path)
			return
		}
		if b.resumeSuspended(u.Owner, doc.Path) {
			return
		}
		b.reply(u.Owner, "ℹ️ nothing waiting for a subtitle")
		return
	}
	b.reply(u.Owner, "ℹ️ drop video files into the manual folder; they are adopted automatically")
}

func (b *Bot) enqueueFlowWithSubtitle(owner int64, f *flow, srt string) {
	defer b.clearFlow(owner)
	if len(f.recipe.Resolutions) == 0 {
		f.recipe.Resolutions = []string{"360p"}
	}
	if len(f.cacheIDs) > 0 {
		for _, id := range f.cacheIDs {
			j := job.New(owner, job.KindEncode)
			j.CacheID = id
			j.Recipe = f.recipe
			j.SubtitlePath = srt
			b.enqueue(j)
		}
		return
	}
	for _, url := range strings.Split(f.url, ",") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		j := job.New(owner, job.KindEncode)
		j.URL = url
		j.Recipe = f.recipe
		j.SubtitlePath = srt
		b.enqueue(j)
	}
}

func selectedResolutions(sel map[string]bool) []string {
	out := make([]string, 0, len(sel))
	for res := range sel {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		return resRank(out[i]) < resRank(out[j])
	})
	return out
}

func resRank(res string) int {
	for i, r := range encoder.ResolutionOrder {
		if r == res {
			return i
		}
	}
	return len(encoder.ResolutionOrder)
}

func validCRF(v string) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n >= 16 && n <= 35
}
