package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/stefanpenner/subtasks/pkg/commands"
	"github.com/stefanpenner/subtasks/pkg/config"
	"github.com/stefanpenner/subtasks/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// go install leaves ldflags unset, fall back to the module build info
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		backend   io.Closer
		subApp    = &commands.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "subtasks",
		Usage:     "Outline tasks and subtasks from the terminal",
		UsageText: "subtasks [global options] command [command options]",
		Description: `subtasks keeps task lists as ordered outlines. Any task can hold subtasks,
and tasks are indented, outdented and moved while the outline stays valid.

Run 'subtasks' with no arguments to open the interactive outline editor.
Run 'subtasks add <title>' to add a task to the default list.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("SUBTASKS_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("SUBTASKS_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("SUBTASKS_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("SUBTASKS_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			taskStore, storeCloser, err := commands.OpenBackend(cfg)
			if err != nil {
				return ctx, err
			}
			backend = storeCloser

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*subApp = *commands.NewApp(cfg, taskStore, log.Logger)

			log.Debug().
				Str("backend", cfg.Backend).
				Str("data_dir", cfg.DataDir).
				Msg("started")
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if backend != nil {
				if err := backend.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close store")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, subApp)

	app = commands.NewTaskCmd(flags, subApp).Register(app)
	app = commands.NewShowCmd(flags, subApp).Register(app)
	app = commands.NewMoveCmd(flags, subApp).Register(app)
	app = commands.NewListsCmd(flags, subApp).Register(app)
	app = commands.NewSearchCmd(flags, subApp).Register(app)
	app = commands.NewRepairCmd(flags, subApp).Register(app)
	app = commands.NewSyncCmd(flags, subApp).Register(app)
	app = commands.NewConfigCmd(flags, subApp).Register(app)

	// Register TUI flags on root command
	app.Flags = append(app.Flags, tuiCmd.Flags()...)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'subtasks --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
