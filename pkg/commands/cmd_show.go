package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type ShowCmd struct {
	flags *Flags
	app   *App

	jsonOutput bool
	all        bool
}

// NewShowCmd creates the show command.
func NewShowCmd(flags *Flags, app *App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

// Register adds the show command to the application.
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "show",
		Usage:     "Print a list as an outline",
		UsageText: "subtasks show [--json] [--all] [list]",
		Description: `Prints the tasks of a list as an indented outline, with task IDs
and the done/total count of each task's subtasks.

Without a list argument the configured default list is shown.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "output as nested JSON", Destination: &cmd.jsonOutput},
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "include done tasks when tui.hide_done is set", Destination: &cmd.all},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	list, err := cmd.app.list(ctx, c.Args().First())
	if err != nil {
		return err
	}

	items, err := cmd.app.Service.Tree(ctx, list)
	if err != nil {
		return fmt.Errorf("load %s: %w", list, err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return writeJSON(out, itemsToMap(items))
	}

	_, _ = fmt.Fprintln(out, list)
	if len(items) == 0 {
		_, _ = fmt.Fprintln(out, "  (empty)")
		return nil
	}
	printTree(out, items, cmd.app.Config.TUI.HideDone && !cmd.all)
	return nil
}
