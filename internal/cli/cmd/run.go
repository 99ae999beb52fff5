package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"encbot/internal/config"
	"encbot/internal/console"
	"encbot/internal/dirs"
	"encbot/internal/encoder"
	"encbot/internal/hosts"
	"encbot/internal/job"
	"encbot/internal/pipeline"
	"encbot/internal/progress"
	"encbot/internal/queue"
	"encbot/internal/runner"
	"encbot/internal/store"
	"encbot/internal/transport"
	"encbot/internal/util/deps"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run <url>",
		Short:         "Encode one URL without the chat loop",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOne(cmd, args[0])
		},
	}
	bindEncodeFlags(cmd.Flags())
	return cmd
}

func bindEncodeFlags(fs *pflag.FlagSet) {
	fs.String("res", "480p", "Comma-separated target resolutions: 360p, 480p, 720p, 1080p")
	fs.String("mode", string(encoder.ModeCRF), "Rate control: crf, 2pass, mixed")
	fs.String("crf", "", "CRF value (defaults to the configured one)")
	fs.String("audio", string(encoder.AudioHE), "Audio codec: he (HE-AAC) or aac (AAC-LC)")
	fs.String("sub", "", "External subtitle file to burn (default: auto-detect embedded)")
	fs.Bool("no-ui", false, "Disable the dashboard; plain log output")
}

func runOne(cmd *cobra.Command, url string) error {
	settings := config.Load()

	rec, err := assembleRecipe(cmd, settings)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

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
	if _, err := deps.FindDownloader(settings.DownloaderPath); err != nil {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}

	cache, err := store.OpenRawCache(filepath.Join(layout.State, "cache_registry.json"), layout.Manual)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	history, err := store.OpenHistory(filepath.Join(layout.State, "encode_history.json"))
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	run := runner.New(runner.NewTracker())
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

	noUI, _ := cmd.Flags().GetBool("no-ui")
	useTUI := !noUI && term.IsTerminal(int(os.Stdout.Fd()))

	// The dashboard owns the terminal in TUI mode; chat-style output
	// would tear it, so it goes nowhere.
	var chatOut io.Writer = os.Stdout
	if useTUI {
		chatOut = io.Discard
	}
	tr := transport.NewConsole(settings.OwnerID, strings.NewReader(""), chatOut)

	var svc *pipeline.Service
	source := func() (progress.View, bool) {
		if svc == nil {
			return progress.View{}, false
		}
		return svc.CurrentView()
	}

	opts := []pipeline.Option{
		pipeline.WithDownloaderPath(settings.DownloaderPath),
		pipeline.WithFFmpegPath(settings.FFmpegPath),
		pipeline.WithFFprobePath(settings.FFprobePath),
		pipeline.WithDownloadTimeout(settings.DownloadTimeout),
		pipeline.WithLayout(layout),
		pipeline.WithRunner(run),
		pipeline.WithTransport(tr),
		pipeline.WithCache(cache),
		pipeline.WithHistory(history),
		pipeline.WithSuspensions(queue.NewSuspensionRegistry()),
		pipeline.WithHosts(hostSet),
	}

	var dash console.Model
	if useTUI {
		dash = console.NewModel(source)
		opts = append(opts, pipeline.WithReporter(dash.Reporter()))
	}
	svc = pipeline.NewService(opts...)

	j := job.New(settings.OwnerID, job.KindEncode)
	j.URL = url
	j.Recipe = rec
	sub, _ := cmd.Flags().GetString("sub")
	j.SubtitlePath = sub

	ctx := cmd.Context()
	if !useTUI {
		st := svc.RunJob(ctx, j)
		svc.WaitFanouts()
		if st != job.StateDone {
			return &ExitError{Code: ExitJobError, Err: fmt.Errorf("job finished %s", st)}
		}
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan job.State, 1)
	go func() {
		st := svc.RunJob(runCtx, j)
		svc.WaitFanouts()
		rep := dash.Reporter()
		if st == job.StateDone {
			rep.Result(progress.Result{JobID: j.ID})
		} else {
			rep.Result(progress.Result{JobID: j.ID, Err: fmt.Errorf("job finished %s", st)})
		}
		done <- st
	}()

	err = console.Run(ctx, dash)
	cancel()
	st := <-done
	if err != nil && !errors.Is(err, context.Canceled) {
		return &ExitError{Code: ExitJobError, Err: err}
	}
	if st != job.StateDone {
		return &ExitError{Code: ExitJobError, Err: fmt.Errorf("job finished %s", st)}
	}
	return nil
}

// assembleRecipe merges flags over the configured defaults.
func assembleRecipe(cmd *cobra.Command, settings config.Settings) (encoder.Recipe, error) {
	rec := encoder.Recipe{
		CRF:   settings.CRF,
		Mode:  encoder.ModeCRF,
		Audio: encoder.AudioHE,
		Style: encoder.Style{
			FontName: settings.FontName,
			FontSize: settings.FontSize,
			MarginV:  settings.MarginV,
			Bold:     settings.Bold,
		},
		Watermark: encoder.Watermark{
			Enabled:  settings.WatermarkEnabled,
			Text:     settings.WatermarkText,
			FontPath: settings.WatermarkFont,
			Duration: settings.WatermarkDuration,
		},
	}

	resFlag, _ := cmd.Flags().GetString("res")
	for _, r := range strings.Split(resFlag, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !encoder.KnownResolution(r) {
			return rec, fmt.Errorf("unknown resolution %q (valid: 360p, 480p, 720p, 1080p)", r)
		}
		rec.Resolutions = append(rec.Resolutions, r)
	}
	if len(rec.Resolutions) == 0 {
		return rec, fmt.Errorf("no resolutions given")
	}

	modeFlag, _ := cmd.Flags().GetString("mode")
	rec.Mode = encoder.ParseMode(modeFlag)

	audioFlag, _ := cmd.Flags().GetString("audio")
	rec.Audio = encoder.ParseAudio(audioFlag)

	if crf, _ := cmd.Flags().GetString("crf"); crf != "" {
		rec.CRF = crf
	}
	return rec, nil
}
