package console

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives the dashboard until the context ends or the user quits.
// Returns an error summarising failed jobs, if any.
func Run(ctx context.Context, m Model) error {
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		failed := 0
		for _, id := range fm.jobOrder {
			if js := fm.jobs[id]; js != nil && js.err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d job(s) failed", failed)
		}
	}
	return nil
}
