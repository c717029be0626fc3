package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/stefanpenner/subtasks/pkg/tui"
)

type TuiCmd struct {
	flags *Flags
	app   *App

	list string
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, app *App) *TuiCmd {
	return &TuiCmd{
		flags: flags,
		app:   app,
	}
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "list",
			Aliases:     []string{"l"},
			Usage:       "list to open first (defaults to default_list)",
			Sources:     cli.EnvVars("SUBTASKS_LIST"),
			Destination: &cmd.list,
		},
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	model := tui.NewModel(ctx, tui.Options{
		Service: cmd.app.Service,
		Config:  cmd.app.Config,
		Syncer:  cmd.app.Syncer,
		Logger:  log.Logger,
		List:    cmd.list,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	stop, err := tui.StartWatcher(cmd.app.Config.DataDir, p, log.Logger)
	if err != nil {
		// live reload is optional, R still reloads by hand
		log.Warn().Err(err).Msg("file watcher unavailable")
	} else {
		defer stop()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
