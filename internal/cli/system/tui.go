package system

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/logger"
	"github.com/julianstephens/careminder/internal/notifier"
	"github.com/julianstephens/careminder/internal/tui"
)

type TuiCmd struct {
	Dispatch bool `help:"Also fire due reminders while the TUI is open, for setups without a daemon." env:"CAREMINDER_TUI_DISPATCH"`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	runCtx := ctx.Context()

	// Reschedule from stored data, as on every app start.
	ctx.Session.Restore(runCtx)

	if c.Dispatch {
		dispatcher := ctx.NewDispatcher(notifier.NewTraySender(), 0)
		go func() {
			if err := dispatcher.Run(runCtx); err != nil {
				logger.Warn("In-process dispatcher stopped", "error", err)
			}
		}()
	}

	p := tea.NewProgram(tui.NewModel(ctx), tea.WithAltScreen(), tea.WithContext(runCtx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
