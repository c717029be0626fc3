package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type RepairCmd struct {
	flags *Flags
	app   *App
}

// NewRepairCmd creates the repair command.
func NewRepairCmd(flags *Flags, app *App) *RepairCmd {
	return &RepairCmd{flags: flags, app: app}
}

// Register adds the repair command to the application.
func (cmd *RepairCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "repair",
		Usage:     "Rewrite outline positions from task indents",
		UsageText: "subtasks repair [list...]",
		Description: `Rebuilds each list's outline and writes back dense orders and
correct parents. Use it after editing task files by hand.

Without arguments every list is repaired.`,
		Action: cmd.run,
	})
	return app
}

func (cmd *RepairCmd) run(ctx context.Context, c *cli.Command) error {
	slugs := c.Args().Slice()
	if len(slugs) == 0 {
		lists, err := cmd.app.Service.Lists(ctx)
		if err != nil {
			return fmt.Errorf("load lists: %w", err)
		}
		for _, l := range lists {
			slugs = append(slugs, l.Slug)
		}
	}

	for _, slug := range slugs {
		if err := cmd.app.Service.Normalize(ctx, slug); err != nil {
			return fmt.Errorf("repair %s: %w", slug, err)
		}
		_, _ = fmt.Fprintf(c.Root().Writer, "Repaired %s\n", slug)
	}
	return nil
}
