package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// MoveCmd implements the commands that change where a task sits in its
// list's outline.
type MoveCmd struct {
	flags *Flags
	app   *App

	before int64
	root   bool
	up     bool
	down   bool
}

// NewMoveCmd creates the outline commands.
func NewMoveCmd(flags *Flags, app *App) *MoveCmd {
	return &MoveCmd{flags: flags, app: app}
}

// Register adds indent, outdent and move.
func (cmd *MoveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "indent",
			Usage:     "Nest a task under the task above it",
			UsageText: "subtasks indent <id>",
			Action:    cmd.shift(1),
		},
		&cli.Command{
			Name:      "outdent",
			Usage:     "Move a task one level up",
			UsageText: "subtasks outdent <id>",
			Action:    cmd.shift(-1),
		},
		&cli.Command{
			Name:      "move",
			Aliases:   []string{"mv"},
			Usage:     "Move a task and its subtasks",
			UsageText: "subtasks move <id> (--before <id> | --root | --up | --down)",
			Description: `Moves a task together with its subtasks.

  --before <id>  place it right before another task, as that task's sibling
  --root         place it at the end of the list, at the top level
  --up, --down   swap it with its previous or next sibling

Moving a task into its own subtree does nothing.`,
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "before", Aliases: []string{"b"}, Usage: "task to move before", Destination: &cmd.before},
				&cli.BoolFlag{Name: "root", Usage: "move to the top level", Destination: &cmd.root},
				&cli.BoolFlag{Name: "up", Usage: "move before the previous sibling", Destination: &cmd.up},
				&cli.BoolFlag{Name: "down", Usage: "move after the next sibling", Destination: &cmd.down},
			},
			Action: cmd.runMove,
		},
	)
	return app
}

func (cmd *MoveCmd) shift(delta int) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		id, err := taskID(c, 0, "subtasks "+c.Name+" <id>")
		if err != nil {
			return err
		}
		if delta > 0 {
			err = cmd.app.Service.Indent(ctx, id)
		} else {
			err = cmd.app.Service.Outdent(ctx, id)
		}
		if err != nil {
			return fmt.Errorf("%s task: %w", c.Name, err)
		}
		return cmd.report(ctx, c, id)
	}
}

func (cmd *MoveCmd) runMove(ctx context.Context, c *cli.Command) error {
	id, err := taskID(c, 0, "subtasks move <id> (--before <id> | --root | --up | --down)")
	if err != nil {
		return err
	}

	chosen := 0
	for _, set := range []bool{cmd.before > 0, cmd.root, cmd.up, cmd.down} {
		if set {
			chosen++
		}
	}
	if chosen != 1 {
		return fmt.Errorf("choose exactly one of --before, --root, --up or --down")
	}

	switch {
	case cmd.before > 0:
		err = cmd.app.Service.MoveBefore(ctx, id, cmd.before)
	case cmd.root:
		err = cmd.app.Service.MoveToRoot(ctx, id)
	case cmd.up:
		err = cmd.app.Service.MoveUp(ctx, id)
	case cmd.down:
		err = cmd.app.Service.MoveDown(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	return cmd.report(ctx, c, id)
}

// report prints the task's list so the new position is visible.
func (cmd *MoveCmd) report(ctx context.Context, c *cli.Command, id int64) error {
	t, err := cmd.app.Service.Task(ctx, id)
	if err != nil {
		return err
	}
	items, err := cmd.app.Service.Tree(ctx, t.List)
	if err != nil {
		return err
	}
	printTree(c.Root().Writer, items, false)
	return nil
}
