package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type SyncCmd struct {
	flags *Flags
	app   *App

	remote string
}

// NewSyncCmd creates the init and sync commands.
func NewSyncCmd(flags *Flags, app *App) *SyncCmd {
	return &SyncCmd{flags: flags, app: app}
}

// Register adds init and sync.
func (cmd *SyncCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "init",
			Usage:     "Put the data directory under git",
			UsageText: "subtasks init [--remote <url>]",
			Description: `Initializes a git repository in the data directory and, with
--remote, points the configured remote (sync.remote) at url.`,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "remote", Aliases: []string{"r"}, Usage: "remote repository url", Destination: &cmd.remote},
			},
			Action: cmd.runInit,
		},
		&cli.Command{
			Name:      "sync",
			Usage:     "Commit, pull and push the data directory",
			UsageText: "subtasks sync",
			Description: `Commits local changes, pulls with rebase (falling back to a merge)
and pushes. Conflicts that git cannot resolve are left for you to fix.`,
			Action: cmd.runSync,
		},
	)
	return app
}

func (cmd *SyncCmd) runInit(ctx context.Context, c *cli.Command) error {
	dir := cmd.app.Config.DataDir
	if err := cmd.app.Syncer.Init(ctx, dir, cmd.remote); err != nil {
		return err
	}

	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "Initialized %s\n", dir)
	if cmd.remote == "" {
		_, _ = fmt.Fprintln(out, "No remote specified. Use --remote <url> to set one.")
	}
	return nil
}

func (cmd *SyncCmd) runSync(ctx context.Context, c *cli.Command) error {
	res, err := cmd.app.Syncer.Sync(ctx, cmd.app.Config.DataDir)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	out := c.Root().Writer
	if res.Committed {
		_, _ = fmt.Fprintln(out, "Committed local changes.")
	}
	if res.Strategy != "" {
		_, _ = fmt.Fprintf(out, "Pulled (%s).\n", res.Strategy)
	}
	_, _ = fmt.Fprintln(out, "Sync complete.")
	return nil
}
