package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"encbot/internal/job"
	"encbot/internal/progress"
	"encbot/internal/report"
	"encbot/internal/store"
	"encbot/internal/transport"
	"encbot/internal/util/format"
)

func (b *Bot) cmdLeech(u transport.Update, args string) {
	url := firstURL(args, u.ReplyTo)
	if url == "" {
		b.reply(u.Owner, "usage: /leech <url> (or reply to a message holding one)")
		return
	}
	j := job.New(u.Owner, job.KindLeech)
	j.URL = url
	b.enqueue(j)
}

func (b *Bot) cmdConvert(u transport.Update, args string) {
	if args == "" {
		b.reply(u.Owner, "usage: /convert <url[,url…]>")
		return
	}
	j := job.New(u.Owner, job.KindConvert)
	j.URL = args
	b.enqueue(j)
}

func (b *Bot) cmdMirror(u transport.Update, args string) {
	if args == "" {
		b.reply(u.Owner, "usage: /fp <gdrive-url[,url…]>")
		return
	}
	j := job.New(u.Owner, job.KindMirror)
	j.URL = args
	b.enqueue(j)
}

func (b *Bot) cmdMultiHost(u transport.Update, args string) {
	if args == "" {
		b.reply(u.Owner, "usage: /up <url[,url…]>")
		return
	}
	for _, url := range strings.Split(args, ",") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		j := job.New(u.Owner, job.KindMultiHost)
		j.URL = url
		b.enqueue(j)
	}
}

func (b *Bot) cmdBrowse(ctx context.Context, u transport.Update) {
	if b.seedbox == nil {
		b.reply(u.Owner, "❌ seedbox not configured")
		return
	}
	names, err := b.seedbox.List(ctx)
	if err != nil {
		b.reply(u.Owner, fmt.Sprintf("❌ list failed: %v", err))
		return
	}
	if len(names) == 0 {
		b.reply(u.Owner, "📂 seedbox share is empty")
		return
	}
	var sb strings.Builder
	sb.WriteString("📂 seedbox files (reply with numbers, e.g. 1,3):\n")
	for i, n := range names {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, n)
	}
	b.setFlow(u.Owner, &flow{step: stepBrowse, browseFiles: names})
	b.reply(u.Owner, sb.String())
}

func (b *Bot) cmdFiles(u transport.Update) {
	ids, entries := b.cache.List()
	if len(ids) == 0 {
		b.reply(u.Owner, "📂 cache is empty")
		return
	}
	var sb strings.Builder
	sb.WriteString("📂 raw cache:\n")
	for i, id := range ids {
		e := entries[i]
		tag := ""
		if e.Origin == store.OriginManual {
			tag = " (manual)"
		}
		fmt.Fprintf(&sb, "%s. %s (%s)%s\n", id, e.Name, format.HumanizeBytes(e.Size), tag)
	}
	sb.WriteString("\n/encode <id[,id…]> to re-encode")
	b.reply(u.Owner, sb.String())
}

func (b *Bot) cmdEncodeCache(u transport.Update, args string) {
	if args == "" {
		b.reply(u.Owner, "usage: /encode <id[,id…]>")
		return
	}
	var ids []string
	for _, id := range strings.Split(args, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := b.cache.Get(id); !ok {
			b.reply(u.Owner, fmt.Sprintf("❌ cache id %s not found", id))
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		b.reply(u.Owner, "usage: /encode <id[,id…]>")
		return
	}
	b.startEncodeFlow(u.Owner, "", ids)
}

func (b *Bot) cmdClean(u transport.Update) {
	n, err := b.cache.Clear()
	if err != nil {
		b.reply(u.Owner, fmt.Sprintf("❌ clean failed: %v", err))
		return
	}
	b.reply(u.Owner, fmt.Sprintf("🧹 removed %d cached file(s)", n))
}

func (b *Bot) cmdQueue(u transport.Update) {
	jobs := b.queue.Snapshot()
	if len(jobs) == 0 {
		b.reply(u.Owner, "📭 queue is empty")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 %d pending:\n", len(jobs))
	for i, j := range jobs {
		name := j.RealName
		if name == "" {
			name = j.URL
		}
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, j.Kind, name)
	}
	b.reply(u.Owner, sb.String())
}

func (b *Bot) cmdClearQueue(u transport.Update) {
	dropped := b.queue.Clear()
	for _, j := range dropped {
		j.Cancel()
	}
	b.reply(u.Owner, fmt.Sprintf("🗑 dropped %d pending job(s)", len(dropped)))
}

func (b *Bot) cmdStatus(u transport.Update) {
	state, current, depth := b.worker.Status()
	load := progress.ReadSysLoad()

	var sb strings.Builder
	fmt.Fprintf(&sb, "worker: %s\n", state)
	if current != nil {
		name := current.RealName
		if name == "" {
			name = current.URL
		}
		fmt.Fprintf(&sb, "current: [%s] %s (running %s)\n",
			current.Kind, name, format.Clock(time.Since(current.Submitted)))
	}
	fmt.Fprintf(&sb, "pending: %d\n", depth)
	fmt.Fprintf(&sb, "cpu: %d cores, load %.2f, free ram %s",
		load.CPUs, load.Load1, format.HumanizeBytes(load.FreeRAM))
	b.reply(u.Owner, sb.String())
}

func (b *Bot) cmdCancel(u transport.Update) {
	j := b.worker.Current()
	if j == nil || j.Owner != u.Owner {
		b.reply(u.Owner, "ℹ️ no running job of yours")
		return
	}
	j.Cancel()
	killed := b.tracker.KillAll(u.Owner)
	b.reply(u.Owner, fmt.Sprintf("🚫 cancelling, killed %d process(es)", killed))
}

func (b *Bot) cmdTemplate(u transport.Update, args string) {
	sub, rest, _ := strings.Cut(args, " ")
	switch strings.ToLower(sub) {
	case "add":
		b.startTemplateFlow(u.Owner)
	case "del":
		key := strings.TrimSpace(rest)
		if key == "" {
			b.reply(u.Owner, "usage: /template del <key>")
			return
		}
		if err := b.templates.Delete(key); err != nil {
			b.reply(u.Owner, fmt.Sprintf("❌ %v", err))
			return
		}
		b.reply(u.Owner, "🗑 template "+key+" removed")
	default:
		keys, tpls := b.templates.List()
		if len(keys) == 0 {
			b.reply(u.Owner, "📭 no templates. /template add to create one")
			return
		}
		var sb strings.Builder
		sb.WriteString("🎛 templates:\n")
		for i, k := range keys {
			fmt.Fprintf(&sb, "%s: %s\n", k, tpls[i].Name)
		}
		b.reply(u.Owner, sb.String())
	}
}

func (b *Bot) cmdLinks(u transport.Update) {
	recs := b.history.All()
	if len(recs) == 0 {
		b.reply(u.Owner, "📂 encode history is empty")
		return
	}
	byTitle := report.ByTitle(recs)
	for title, body := range byTitle {
		path := filepath.Join(b.layout.Output, sanitizeDoc(title)+".txt")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			b.reply(u.Owner, fmt.Sprintf("❌ %v", err))
			continue
		}
		if err := b.tr.SendDocument(u.Owner, path, title); err != nil {
			b.reply(u.Owner, fmt.Sprintf("❌ send failed: %v", err))
		}
		os.Remove(path)
	}
}

func (b *Bot) cmdSingleServerLinks(u transport.Update, server string) {
	recs := b.history.All()
	body := report.SingleServer(recs, server)
	if body == "" {
		b.reply(u.Owner, "📂 no 1080p "+server+" links in history")
		return
	}
	path := filepath.Join(b.layout.Output, server+"_links.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		b.reply(u.Owner, fmt.Sprintf("❌ %v", err))
		return
	}
	defer os.Remove(path)
	if err := b.tr.SendDocument(u.Owner, path, server+" links"); err != nil {
		b.reply(u.Owner, fmt.Sprintf("❌ send failed: %v", err))
	}
}

func (b *Bot) cmdClearHistory(u transport.Update) {
	if err := b.history.Clear(); err != nil {
		b.reply(u.Owner, fmt.Sprintf("❌ %v", err))
		return
	}
	b.reply(u.Owner, "🧹 history cleared")
}

func (b *Bot) cmdAddList(u transport.Update) {
	if u.ReplyTo == "" {
		b.reply(u.Owner, "usage: reply /addlist to a result message")
		return
	}
	rec, ok := ParseResultMessage(u.ReplyTo)
	if !ok {
		b.reply(u.Owner, "❌ could not parse that message")
		return
	}
	if err := b.history.Append(rec); err != nil {
		b.reply(u.Owner, fmt.Sprintf("❌ %v", err))
		return
	}
	b.reply(u.Owner, "✅ added "+rec.Filename+" to history")
}

func (b *Bot) cmdAuth(u transport.Update, args string, add bool) {
	if !b.ownerOnly(u) {
		return
	}
	id, err := parseID(args)
	if err != nil {
		b.reply(u.Owner, "usage: /auth <id>")
		return
	}
	if add {
		err = b.auth.Add(id)
	} else {
		err = b.auth.Remove(id)
	}
	if err != nil {
		b.reply(u.Owner, fmt.Sprintf("❌ %v", err))
		return
	}
	b.reply(u.Owner, "✅ done")
}

func (b *Bot) cmdUsers(u transport.Update) {
	if !b.ownerOnly(u) {
		return
	}
	ids := b.auth.List()
	var sb strings.Builder
	fmt.Fprintf(&sb, "owner: %d\n", b.settings.OwnerID)
	for _, id := range ids {
		fmt.Fprintf(&sb, "- %d\n", id)
	}
	b.reply(u.Owner, sb.String())
}

func (b *Bot) cmdLog(u transport.Update) {
	if !b.ownerOnly(u) {
		return
	}
	if b.logPath == "" {
		b.reply(u.Owner, "ℹ️ logging goes to stderr; set log.file to capture it")
		return
	}
	if _, err := os.Stat(b.logPath); err != nil {
		b.reply(u.Owner, "ℹ️ no log file yet")
		return
	}
	if err := b.tr.SendDocument(u.Owner, b.logPath, "log"); err != nil {
		b.reply(u.Owner, fmt.Sprintf("❌ send failed: %v", err))
	}
}

func (b *Bot) cmdKill(u transport.Update) {
	if !b.ownerOnly(u) {
		return
	}
	if j := b.worker.Current(); j != nil {
		j.Cancel()
	}
	total := b.tracker.KillAll(u.Owner)
	b.reply(u.Owner, fmt.Sprintf("💀 killed %d process(es)", total))
}

func (b *Bot) cmdUpdate(u transport.Update) {
	if !b.ownerOnly(u) {
		return
	}
	b.reply(u.Owner, "ℹ️ this build updates through its package; redeploy the binary instead")
}

// cmdTools refreshes the bundled yt-dlp into the tools folder.
func (b *Bot) cmdTools(ctx context.Context, u transport.Update) {
	if !b.ownerOnly(u) {
		return
	}
	dest := filepath.Join(b.layout.Tools, "yt-dlp")
	b.reply(u.Owner, "⬇️ fetching latest yt-dlp…")
	if err := fetchTool(ctx, ytDLPReleaseURL, dest); err != nil {
		b.reply(u.Owner, fmt.Sprintf("❌ %v", err))
		return
	}
	b.reply(u.Owner, "✅ yt-dlp updated at "+dest)
}

const ytDLPReleaseURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp"

func fetchTool(ctx context.Context, url, dest string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	tmp := dest + ".part"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

func firstURL(args, replyTo string) string {
	if isURL(args) {
		return args
	}
	for _, f := range strings.Fields(replyTo) {
		if isURL(f) {
			return f
		}
	}
	return ""
}

func sanitizeDoc(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// resumeSuspended is shared by the document handler.
func (b *Bot) resumeSuspended(owner int64, srtPath string) bool {
	j, ok := b.suspensions.Resume(owner, srtPath)
	if !ok {
		return false
	}
	b.queue.PushFront(j)
	b.reply(owner, "▶️ subtitle received, resuming "+j.RealName)
	return true
}
