package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"encbot/internal/bot"
	"encbot/internal/config"
	"encbot/internal/dirs"
	"encbot/internal/hosts"
	"encbot/internal/httpapi"
	"encbot/internal/logging"
	"encbot/internal/pipeline"
	"encbot/internal/queue"
	"encbot/internal/runner"
	"encbot/internal/store"
	"encbot/internal/transport"
	"encbot/internal/util/deps"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Run the bot: chat control loop, worker, manual-drop watcher, status API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd)
		},
	}
}

func serve(cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	settings := config.Load()
	log := logging.WithComponent("serve")

	layout, err := dirs.DefaultLayout()
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if err := layout.EnsureAll(); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	if _, err := deps.FindFFmpeg(settings.FFmpegPath); err != nil {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}

	cache, err := store.OpenRawCache(filepath.Join(layout.State, "cache_registry.json"), layout.Manual)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if err := cache.ScanManual(); err != nil {
		log.Warn().Err(err).Msg("manual folder scan failed")
	}
	history, err := store.OpenHistory(filepath.Join(layout.State, "encode_history.json"))
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	auth, err := store.OpenAuthList(filepath.Join(layout.State, "auth_users.json"), settings.OwnerID)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	templates, err := store.OpenTemplates(filepath.Join(layout.State, "templates.json"))
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	tracker := runner.NewTracker()
	run := runner.New(tracker)

	seedbox := hosts.NewSeedbox(settings.Seedbox)
	hostSet := []hosts.Uploader{
		seedbox,
		hosts.NewGDrive(settings.GDrive, settings.RclonePath, run, settings.OwnerID),
		hosts.NewMirrored(settings.Mirrored),
		hosts.NewBuzzheavier(settings.Buzzheavier),
		hosts.NewGofile(settings.Gofile),
		hosts.NewFilePress(settings.FilePress),
		hosts.NewTurboVid(settings.TurboVid),
		hosts.NewAbyss(settings.Abyss),
		hosts.NewVidHide(settings.VidHide),
	}

	tr := transport.NewConsole(settings.OwnerID, os.Stdin, os.Stdout)
	suspensions := queue.NewSuspensionRegistry()

	svc := pipeline.NewService(
		pipeline.WithDownloaderPath(settings.DownloaderPath),
		pipeline.WithFFmpegPath(settings.FFmpegPath),
		pipeline.WithFFprobePath(settings.FFprobePath),
		pipeline.WithDownloadTimeout(settings.DownloadTimeout),
		pipeline.WithLayout(layout),
		pipeline.WithRunner(run),
		pipeline.WithTransport(tr),
		pipeline.WithCache(cache),
		pipeline.WithHistory(history),
		pipeline.WithSuspensions(suspensions),
		pipeline.WithHosts(hostSet),
	)

	q := queue.New()
	worker := queue.NewWorker(q, svc.RunJob, func(owner int64, text string) {
		_, _ = tr.Send(owner, text)
	})
	go worker.Start(ctx)
	go func() { _ = cache.WatchManual(ctx) }()

	if settings.HTTPEnabled {
		api := httpapi.New(worker, q, history)
		go func() {
			if err := api.ListenAndServe(ctx, settings.HTTPListen); err != nil {
				log.Error().Err(err).Msg("status endpoint failed")
			}
		}()
	}

	logPath, _ := cmd.Root().PersistentFlags().GetString("log-file")

	var sb bot.SeedboxBrowser
	if settings.Seedbox.Enabled {
		sb = seedbox
	}
	b := bot.New(bot.Deps{
		Transport:   tr,
		Settings:    settings,
		Layout:      layout,
		Auth:        auth,
		Cache:       cache,
		History:     history,
		Templates:   templates,
		Queue:       q,
		Worker:      worker,
		Suspensions: suspensions,
		Tracker:     tracker,
		Seedbox:     sb,
		LogPath:     logPath,
	})

	log.Info().Int64("owner", settings.OwnerID).Msg("bot running")
	b.Run(ctx)

	// Let detached upload fanouts drain before exiting.
	cancel()
	svc.WaitFanouts()
	return nil
}
