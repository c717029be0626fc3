package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/stefanpenner/subtasks/pkg/store"
)

// TaskCmd implements the commands that create and edit single tasks.
type TaskCmd struct {
	flags *Flags
	app   *App

	jsonOutput bool
	list       string
	parent     int64
}

// NewTaskCmd creates the task commands.
func NewTaskCmd(flags *Flags, app *App) *TaskCmd {
	return &TaskCmd{flags: flags, app: app}
}

func (cmd *TaskCmd) jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.jsonOutput}
}

// Register adds add, rename, note, status, done and delete.
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "add",
			Usage:     "Add a task",
			UsageText: "subtasks add [--list <list>] [--parent <id>] <title>",
			Description: `Adds a task to the end of a list, or as the last subtask of
--parent.

Examples:
  subtasks add Buy milk
  subtasks add --list work "Write report"
  subtasks add --parent 4 Outline`,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "list", Aliases: []string{"l"}, Usage: "list to add to (defaults to default_list)", Destination: &cmd.list},
				&cli.Int64Flag{Name: "parent", Aliases: []string{"p"}, Usage: "add as a subtask of this task", Destination: &cmd.parent},
				cmd.jsonFlag(),
			},
			Action: cmd.runAdd,
		},
		&cli.Command{
			Name:      "rename",
			Usage:     "Change a task's title",
			UsageText: "subtasks rename <id> <title>",
			Flags:     []cli.Flag{cmd.jsonFlag()},
			Action:    cmd.runRename,
		},
		&cli.Command{
			Name:      "note",
			Usage:     "Append a dated note to a task",
			UsageText: "subtasks note <id> <text>",
			Flags:     []cli.Flag{cmd.jsonFlag()},
			Action:    cmd.runNote,
		},
		&cli.Command{
			Name:      "status",
			Usage:     "Set a task's status",
			UsageText: "subtasks status <id> <todo|doing|done>",
			Description: `Sets a task's status. Marking a task done also marks all of its
subtasks done.`,
			Flags:  []cli.Flag{cmd.jsonFlag()},
			Action: cmd.runStatus,
		},
		&cli.Command{
			Name:      "done",
			Usage:     "Mark a task and its subtasks done",
			UsageText: "subtasks done <id>",
			Flags:     []cli.Flag{cmd.jsonFlag()},
			Action:    cmd.runDone,
		},
		&cli.Command{
			Name:      "delete",
			Aliases:   []string{"rm"},
			Usage:     "Delete a task",
			UsageText: "subtasks delete <id>",
			Description: `Deletes a task. Its subtasks are kept and move up one level
into its place.`,
			Flags:  []cli.Flag{cmd.jsonFlag()},
			Action: cmd.runDelete,
		},
	)
	return app
}

func (cmd *TaskCmd) print(c *cli.Command, verb string, t *store.Task) error {
	out := c.Root().Writer
	if cmd.jsonOutput {
		return writeJSON(out, taskToMap(t))
	}
	_, _ = fmt.Fprintf(out, "%s: ", verb)
	printTask(out, t)
	return nil
}

func (cmd *TaskCmd) runAdd(ctx context.Context, c *cli.Command) error {
	title := rest(c, 0)
	if title == "" {
		return fmt.Errorf("usage: subtasks add [--list <list>] [--parent <id>] <title>")
	}

	var (
		t   *store.Task
		err error
	)
	if cmd.parent > 0 {
		t, err = cmd.app.Service.AddSubtask(ctx, cmd.parent, title)
	} else {
		var list string
		list, err = cmd.app.list(ctx, cmd.list)
		if err != nil {
			return err
		}
		t, err = cmd.app.Service.AddTask(ctx, list, title)
	}
	if err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	return cmd.print(c, "Added", t)
}

func (cmd *TaskCmd) runRename(ctx context.Context, c *cli.Command) error {
	id, err := taskID(c, 0, "subtasks rename <id> <title>")
	if err != nil {
		return err
	}
	t, err := cmd.app.Service.Rename(ctx, id, rest(c, 1))
	if err != nil {
		return fmt.Errorf("rename task: %w", err)
	}
	return cmd.print(c, "Renamed", t)
}

func (cmd *TaskCmd) runNote(ctx context.Context, c *cli.Command) error {
	id, err := taskID(c, 0, "subtasks note <id> <text>")
	if err != nil {
		return err
	}
	t, err := cmd.app.Service.AddNote(ctx, id, rest(c, 1))
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	return cmd.print(c, "Noted", t)
}

func (cmd *TaskCmd) runStatus(ctx context.Context, c *cli.Command) error {
	id, err := taskID(c, 0, "subtasks status <id> <todo|doing|done>")
	if err != nil {
		return err
	}
	status := store.Status(c.Args().Get(1))
	if !status.Valid() {
		return fmt.Errorf("invalid status %q: must be one of todo, doing, done", status)
	}
	t, err := cmd.app.Service.SetStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return cmd.print(c, "Updated", t)
}

func (cmd *TaskCmd) runDone(ctx context.Context, c *cli.Command) error {
	id, err := taskID(c, 0, "subtasks done <id>")
	if err != nil {
		return err
	}
	t, err := cmd.app.Service.SetStatus(ctx, id, store.StatusDone)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return cmd.print(c, "Done", t)
}

func (cmd *TaskCmd) runDelete(ctx context.Context, c *cli.Command) error {
	id, err := taskID(c, 0, "subtasks delete <id>")
	if err != nil {
		return err
	}
	if err := cmd.app.Service.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return writeJSON(out, map[string]int64{"deleted": id})
	}
	_, _ = fmt.Fprintf(out, "Deleted #%d\n", id)
	return nil
}
