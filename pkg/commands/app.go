// Package commands implements the subtasks command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/stefanpenner/subtasks/pkg/config"
	"github.com/stefanpenner/subtasks/pkg/store"
	"github.com/stefanpenner/subtasks/pkg/store/sqlite"
	gsync "github.com/stefanpenner/subtasks/pkg/sync"
	"github.com/stefanpenner/subtasks/pkg/tasks"
)

// App holds what commands need once configuration is loaded. main
// allocates it up front and fills it in the Before hook.
type App struct {
	Config  *config.Config
	Service *tasks.Service
	Syncer  *gsync.Syncer
}

// NewApp wires a service and a syncer over backend.
func NewApp(cfg *config.Config, backend tasks.Backend, log zerolog.Logger) *App {
	return &App{
		Config:  cfg,
		Service: tasks.NewService(backend, log, tasks.WithIgnoreParent(cfg.IgnoreParent)),
		Syncer:  gsync.NewSyncer(cfg.Sync.GitPath, cfg.Sync.Remote, gsync.ExecRunner{}, log),
	}
}

// OpenBackend opens the store named by cfg.Backend. The returned closer
// releases it.
func OpenBackend(cfg *config.Config) (tasks.Backend, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		database, err := sqlite.Open(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return sqlite.NewStore(database), database, nil
	default:
		s, err := store.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		return s, closerFunc(func() error { return nil }), nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// list resolves the list a command works on. The configured default list
// is created on first use.
func (a *App) list(ctx context.Context, slug string) (string, error) {
	if slug == "" {
		slug = a.Config.DefaultList
	}
	slug = store.Slugify(slug)

	_, err := a.Service.Backend().LoadList(ctx, slug)
	switch {
	case err == nil:
		return slug, nil
	case errors.Is(err, store.ErrNotFound) && slug == store.Slugify(a.Config.DefaultList):
		if _, err := a.Service.CreateList(ctx, slug, a.Config.DefaultList); err != nil {
			return "", err
		}
		return slug, nil
	default:
		return "", err
	}
}

// taskID parses the n-th argument as a task ID, accepting a leading '#'.
func taskID(c *cli.Command, n int, usage string) (int64, error) {
	if c.NArg() <= n {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	arg := strings.TrimPrefix(c.Args().Get(n), "#")
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", c.Args().Get(n))
	}
	return id, nil
}

// rest joins the arguments from n on, for titles and notes given
// without quotes.
func rest(c *cli.Command, n int) string {
	args := c.Args().Slice()
	if len(args) <= n {
		return ""
	}
	return strings.Join(args[n:], " ")
}
