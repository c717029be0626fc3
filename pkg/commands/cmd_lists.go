package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
)

type ListsCmd struct {
	flags *Flags
	app   *App

	jsonOutput bool
	title      string
}

// NewListsCmd creates the list management commands.
func NewListsCmd(flags *Flags, app *App) *ListsCmd {
	return &ListsCmd{flags: flags, app: app}
}

// Register adds lists, list-add and list-rm to the application.
func (cmd *ListsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "lists",
			Usage:     "Show all lists",
			UsageText: "subtasks lists [--json]",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.jsonOutput},
			},
			Action: cmd.runLists,
		},
		&cli.Command{
			Name:      "list-add",
			Usage:     "Create a list",
			UsageText: "subtasks list-add [--title <title>] <name>",
			Description: `Creates a list. The name is turned into the list's slug, which
is how other commands refer to it.

Examples:
  subtasks list-add work
  subtasks list-add --title "Home Chores" home`,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "display title", Destination: &cmd.title},
				&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.jsonOutput},
			},
			Action: cmd.runAdd,
		},
		&cli.Command{
			Name:      "list-rm",
			Usage:     "Delete a list and all of its tasks",
			UsageText: "subtasks list-rm <slug>",
			Action:    cmd.runRemove,
		},
	)
	return app
}

func (cmd *ListsCmd) runLists(ctx context.Context, c *cli.Command) error {
	lists, err := cmd.app.Service.Lists(ctx)
	if err != nil {
		return fmt.Errorf("load lists: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		result := []map[string]any{}
		for _, l := range lists {
			result = append(result, listToMap(l))
		}
		return writeJSON(out, result)
	}

	if len(lists) == 0 {
		_, _ = fmt.Fprintln(out, "No lists yet. Create one with 'subtasks list-add <name>'.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SLUG\tTITLE\tTASKS")
	for _, l := range lists {
		ts, err := cmd.app.Service.Backend().TasksInList(ctx, l.Slug)
		if err != nil {
			return fmt.Errorf("load tasks of %s: %w", l.Slug, err)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", l.Slug, l.Title, len(ts))
	}
	return w.Flush()
}

func (cmd *ListsCmd) runAdd(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: subtasks list-add [--title <title>] <name>")
	}
	l, err := cmd.app.Service.CreateList(ctx, rest(c, 0), cmd.title)
	if err != nil {
		return fmt.Errorf("create list: %w", err)
	}

	if cmd.jsonOutput {
		return writeJSON(c.Root().Writer, listToMap(l))
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Created list %s\n", l.Slug)
	return nil
}

func (cmd *ListsCmd) runRemove(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: subtasks list-rm <slug>")
	}
	slug := c.Args().First()
	if err := cmd.app.Service.DeleteList(ctx, slug); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Deleted list %s\n", slug)
	return nil
}
