package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type SearchCmd struct {
	flags *Flags
	app   *App

	jsonOutput bool
}

// NewSearchCmd creates the search command.
func NewSearchCmd(flags *Flags, app *App) *SearchCmd {
	return &SearchCmd{flags: flags, app: app}
}

// Register adds the search command to the application.
func (cmd *SearchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "search",
		Usage:     "Find tasks by title or notes",
		UsageText: "subtasks search [--json] <query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.jsonOutput},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *SearchCmd) run(ctx context.Context, c *cli.Command) error {
	query := rest(c, 0)
	if query == "" {
		return fmt.Errorf("usage: subtasks search <query>")
	}

	matches, err := cmd.app.Service.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return writeJSON(out, tasksToMap(matches))
	}
	if len(matches) == 0 {
		_, _ = fmt.Fprintln(out, "No matches found.")
		return nil
	}
	for _, t := range matches {
		printTask(out, t)
	}
	return nil
}
