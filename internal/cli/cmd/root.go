// Package cmd assembles the encbot command tree.
package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"encbot/internal/config"
	"encbot/internal/logging"
)

const (
	ExitOK         = 0
	ExitCLIError   = 1
	ExitMissingDep = 2
	ExitJobError   = 3
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	var logFile string

	root := &cobra.Command{
		Use:           "encbot",
		Short:         "Chat-controlled video transcoding pipeline",
		Long:          "Encbot downloads source videos, burns subtitles and a watermark while transcoding them into a ladder of resolutions, and fans the results out to file hosts. It is driven from a chat session and keeps raw inputs cached for cheap re-encodes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				viper.SetConfigFile(cfgFile)
			}
			_ = config.Init(cmd.Root())

			level := viper.GetString("log_level")
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				level = "debug"
			}
			var out io.Writer
			if logFile != "" {
				f, err := os.OpenFile(filepath.Clean(logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return &ExitError{Code: ExitCLIError, Err: err}
				}
				out = f
			}
			logging.Configure(logging.Config{Level: level, Output: out})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: encbot.yaml in the config dir or cwd)")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")
	root.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn, error")
	root.PersistentFlags().BoolP("verbose", "v", false, "Shorthand for --log-level debug")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newConsoleCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}
