package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prompt2production/needled-mobile-sub000/internal/cli"
	"github.com/prompt2production/needled-mobile-sub000/internal/tui"
)

type TuiCmd struct {
	Lookback int `help:"Days of history used for the streak." default:"90"`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker(context.Background())
	if err != nil {
		return err
	}
	defer ctx.Close()

	m := tui.NewModel(t, c.Lookback)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited: %w", err)
	}
	return nil
}
