package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
)

type ConfigCmd struct {
	flags *Flags
	app   *App

	jsonOutput bool
}

// NewConfigCmd creates the config command.
func NewConfigCmd(flags *Flags, app *App) *ConfigCmd {
	return &ConfigCmd{flags: flags, app: app}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "subtasks config validate [--json]",
				Description: "Validates the configuration file and checks the data directory, git executable and default list name.",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.jsonOutput},
				},
				Action: cmd.validate,
			},
		},
	})
	return app
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigCmd) validate(_ context.Context, c *cli.Command) error {
	err := cmd.app.Config.ValidateDeep(cmd.flags.ConfigPath)

	var problems []validationError
	var fieldErrs criterio.FieldErrors
	switch {
	case err == nil:
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			problems = append(problems, validationError{Field: fe.Field, Message: fe.Err.Error()})
		}
	default:
		problems = append(problems, validationError{Message: err.Error()})
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		if err := writeJSON(out, map[string]any{"valid": len(problems) == 0, "errors": problems}); err != nil {
			return err
		}
	} else {
		for _, p := range problems {
			if p.Field != "" {
				_, _ = fmt.Fprintf(out, "✗ %s: %s\n", p.Field, p.Message)
			} else {
				_, _ = fmt.Fprintf(out, "✗ %s\n", p.Message)
			}
		}
		if len(problems) == 0 {
			_, _ = fmt.Fprintln(out, "✓ Configuration is valid")
		}
	}

	if len(problems) > 0 {
		return cli.Exit(fmt.Sprintf("%d error(s) found", len(problems)), 1)
	}
	return nil
}
