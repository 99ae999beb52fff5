package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"encbot/internal/config"
	"encbot/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (yt-dlp, ffmpeg, ffprobe, rclone)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := config.Load()
			out := cmd.OutOrStdout()

			dl, err := deps.FindDownloader(settings.DownloaderPath)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			ff, err := deps.FindFFmpeg(settings.FFmpegPath)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			fp, err := deps.FindFFprobe(settings.FFprobePath)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			fmt.Fprintf(out, "Downloader: %s\n", dl)
			fmt.Fprintf(out, "FFmpeg:     %s\n", ff)
			fmt.Fprintf(out, "FFprobe:    %s\n", fp)

			// rclone is optional unless the Drive host is on.
			rc, err := deps.FindRclone(settings.RclonePath)
			switch {
			case err == nil:
				fmt.Fprintf(out, "Rclone:     %s\n", rc)
			case settings.GDrive.Enabled:
				return &ExitError{Code: ExitMissingDep, Err: err}
			default:
				fmt.Fprintf(out, "Rclone:     not found (Drive host disabled, ok)\n")
			}
			return nil
		},
	}
}
