// Package bot routes chat updates to the pipeline: command dispatch,
// the interactive encode flow, and the subtitle-upload resume path.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"encbot/internal/config"
	"encbot/internal/dirs"
	"encbot/internal/encoder"
	"encbot/internal/job"
	"encbot/internal/logging"
	"encbot/internal/queue"
	"encbot/internal/runner"
	"encbot/internal/store"
	"encbot/internal/transport"
)

// SeedboxBrowser is the slice of the seedbox host the fb command needs.
type SeedboxBrowser interface {
	List(ctx context.Context) ([]string, error)
	PublicURL(name string) string
}

// Bot wires the chat surface to the queue and the stores.
type Bot struct {
	tr          transport.Transport
	settings    config.Settings
	layout      dirs.Layout
	auth        *store.AuthList
	cache       *store.RawCache
	history     *store.History
	templates   *store.Templates
	queue       *queue.Queue
	worker      *queue.Worker
	suspensions *queue.SuspensionRegistry
	tracker     *runner.Tracker
	seedbox     SeedboxBrowser // nil when the host is off
	logPath     string

	mu    sync.Mutex
	flows map[int64]*flow

	log zerolog.Logger
}

// Deps carries the constructor dependencies.
type Deps struct {
	Transport   transport.Transport
	Settings    config.Settings
	Layout      dirs.Layout
	Auth        *store.AuthList
	Cache       *store.RawCache
	History     *store.History
	Templates   *store.Templates
	Queue       *queue.Queue
	Worker      *queue.Worker
	Suspensions *queue.SuspensionRegistry
	Tracker     *runner.Tracker
	Seedbox     SeedboxBrowser
	LogPath     string
}

func New(d Deps) *Bot {
	return &Bot{
		tr:          d.Transport,
		settings:    d.Settings,
		layout:      d.Layout,
		auth:        d.Auth,
		cache:       d.Cache,
		history:     d.History,
		templates:   d.Templates,
		queue:       d.Queue,
		worker:      d.Worker,
		suspensions: d.Suspensions,
		tracker:     d.Tracker,
		seedbox:     d.Seedbox,
		logPath:     d.LogPath,
		flows:       make(map[int64]*flow),
		log:         logging.WithComponent("bot"),
	}
}

// Run consumes updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-b.tr.Updates():
			if !ok {
				return
			}
			b.handle(ctx, u)
		}
	}
}

func (b *Bot) handle(ctx context.Context, u transport.Update) {
	if !b.auth.Allowed(u.Owner) {
		b.reply(u.Owner, "⛔ not authorized")
		return
	}
	if u.Document != nil {
		b.handleDocument(u)
		return
	}
	if u.Callback != "" {
		b.handleCallback(ctx, u)
		return
	}

	text := strings.TrimSpace(u.Text)
	if text == "" {
		return
	}
	cmd, args := splitCommand(text)
	switch cmd {
	case "start":
		b.reply(u.Owner, "👋 Send a video URL to start an encode, or /queue to see pending jobs.")
	case "leech":
		b.cmdLeech(u, args)
	case "convert":
		b.cmdConvert(u, args)
	case "fp":
		b.cmdMirror(u, args)
	case "up":
		b.cmdMultiHost(u, args)
	case "fb":
		b.cmdBrowse(ctx, u)
	case "files":
		b.cmdFiles(u)
	case "encode":
		b.cmdEncodeCache(u, args)
	case "clean":
		b.cmdClean(u)
	case "queue":
		b.cmdQueue(u)
	case "clearqueue":
		b.cmdClearQueue(u)
	case "status":
		b.cmdStatus(u)
	case "cancel":
		b.cmdCancel(u)
	case "template":
		b.cmdTemplate(u, args)
	case "links":
		b.cmdLinks(u)
	case "linksdrive":
		b.cmdSingleServerLinks(u, "gdrive")
	case "linksbox":
		b.cmdSingleServerLinks(u, "seedbox")
	case "clearhistory":
		b.cmdClearHistory(u)
	case "addlist":
		b.cmdAddList(u)
	case "auth":
		b.cmdAuth(u, args, true)
	case "unauth":
		b.cmdAuth(u, args, false)
	case "users":
		b.cmdUsers(u)
	case "log":
		b.cmdLog(u)
	case "kill":
		b.cmdKill(u)
	case "update":
		b.cmdUpdate(u)
	case "tools":
		b.cmdTools(ctx, u)
	default:
		if isURL(text) {
			b.startEncodeFlow(u.Owner, text, nil)
			return
		}
		// A flow step may be waiting for free-text input.
		if b.flowInput(ctx, u) {
			return
		}
		b.reply(u.Owner, "❓ unknown command")
	}
}

// ownerOnly gates a command to the configured owner.
func (b *Bot) ownerOnly(u transport.Update) bool {
	if u.Owner != b.settings.OwnerID {
		b.reply(u.Owner, "⛔ owner only")
		return false
	}
	return true
}

func (b *Bot) reply(chat int64, text string) {
	if _, err := b.tr.Send(chat, text); err != nil {
		b.log.Warn().Err(err).Int64("chat", chat).Msg("send failed")
	}
}

// enqueue submits a job and reports its queue position.
func (b *Bot) enqueue(j *job.Job) {
	pos := b.queue.Submit(j)
	if pos == 1 {
		b.reply(j.Owner, "🚀 job started")
		return
	}
	b.reply(j.Owner, fmt.Sprintf("⏳ queued at position %d", pos))
}

// baseRecipe builds a recipe from the configured defaults; the flow
// mutates it step by step.
func (b *Bot) baseRecipe() encoder.Recipe {
	return encoder.Recipe{
		CRF:   b.settings.CRF,
		Mode:  encoder.ModeCRF,
		Audio: encoder.AudioHE,
		Style: encoder.Style{
			FontName: b.settings.FontName,
			FontSize: b.settings.FontSize,
			MarginV:  b.settings.MarginV,
			Bold:     b.settings.Bold,
		},
		Watermark: encoder.Watermark{
			Enabled:  b.settings.WatermarkEnabled,
			Text:     b.settings.WatermarkText,
			FontPath: b.settings.WatermarkFont,
			Duration: b.settings.WatermarkDuration,
		},
	}
}

func splitCommand(text string) (string, string) {
	text = strings.TrimPrefix(text, "/")
	cmd, rest, _ := strings.Cut(text, " ")
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}

func isURL(text string) bool {
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
