package cmd

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"encbot/internal/config"
	"encbot/internal/console"
)

func newConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "console",
		Short:         "Attach a live dashboard to a running serve instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = config.Load().HTTPListen
			}
			if !strings.HasPrefix(addr, "http") {
				addr = "http://" + addr
			}
			m := console.NewStatusModel(&console.StatusClient{BaseURL: addr})
			prog := tea.NewProgram(m, tea.WithContext(cmd.Context()))
			_, err := prog.Run()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Status endpoint address (default: the configured http.listen)")
	return cmd
}
