package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNotRepo is returned when the data directory has no git repository.
	ErrNotRepo = errors.New("not a git repository, run 'subtasks init' first")
	// ErrConflict is returned when neither rebase nor merge could apply the
	// remote changes.
	ErrConflict = errors.New("could not rebase or merge, resolve conflicts manually")
)

// ignored keeps local state out of the repository.
const ignored = "*.log\n*.db-wal\n*.db-shm\n"

// Result describes what a sync did.
type Result struct {
	Committed bool
	// Strategy is "rebase", "merge", or empty when nothing was pulled.
	Strategy string
	Pushed   bool
}

// Syncer runs git against a data directory.
type Syncer struct {
	gitPath string
	remote  string
	run     Runner
	log     zerolog.Logger
	now     func() time.Time
}

// NewSyncer creates a Syncer using the git binary at gitPath and the named
// remote.
func NewSyncer(gitPath, remote string, run Runner, log zerolog.Logger) *Syncer {
	return &Syncer{
		gitPath: gitPath,
		remote:  remote,
		run:     run,
		log:     log.With().Str("component", "sync").Logger(),
		now:     time.Now,
	}
}

func (s *Syncer) git(ctx context.Context, dir string, args ...string) ([]byte, error) {
	s.log.Debug().Strs("args", args).Msg("git")
	return s.run.RunDir(ctx, dir, s.gitPath, args...)
}

// IsRepo reports whether dir holds a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Init makes dir a git repository and, when url is not empty, points the
// remote at it.
func (s *Syncer) Init(ctx context.Context, dir, url string) error {
	if !IsRepo(dir) {
		if _, err := s.git(ctx, dir, "init"); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
	}

	ignore := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(ignore); os.IsNotExist(err) {
		if err := os.WriteFile(ignore, []byte(ignored), 0o644); err != nil {
			return fmt.Errorf("write .gitignore: %w", err)
		}
	}

	if url == "" {
		s.log.Info().Str("dir", dir).Msg("repository ready, no remote set")
		return nil
	}

	// an existing remote is replaced
	_, _ = s.git(ctx, dir, "remote", "remove", s.remote)
	if _, err := s.git(ctx, dir, "remote", "add", s.remote, url); err != nil {
		return fmt.Errorf("set remote: %w", err)
	}
	s.log.Info().Str("remote", s.remote).Str("url", url).Msg("remote set")
	return nil
}

// Sync commits local changes, pulls with rebase (falling back to merge) and
// pushes. Without an upstream branch the pull is skipped and the push sets
// one.
func (s *Syncer) Sync(ctx context.Context, dir string) (Result, error) {
	var res Result
	if !IsRepo(dir) {
		return res, ErrNotRepo
	}

	if _, err := s.git(ctx, dir, "add", "-A"); err != nil {
		return res, fmt.Errorf("stage changes: %w", err)
	}
	if _, err := s.git(ctx, dir, "diff", "--cached", "--quiet"); err != nil {
		msg := "sync " + s.now().Format("2006-01-02 15:04:05")
		if _, err := s.git(ctx, dir, "commit", "-m", msg); err != nil {
			return res, fmt.Errorf("commit: %w", err)
		}
		res.Committed = true
	}

	upstream := s.hasUpstream(ctx, dir)
	if upstream {
		strategy, err := s.pull(ctx, dir)
		if err != nil {
			return res, err
		}
		res.Strategy = strategy
	}

	push := []string{"push"}
	if !upstream {
		push = append(push, "-u", s.remote, "HEAD")
	}
	if _, err := s.git(ctx, dir, push...); err != nil {
		return res, fmt.Errorf("push: %w", err)
	}
	res.Pushed = true

	s.log.Info().
		Bool("committed", res.Committed).
		Str("strategy", res.Strategy).
		Msg("sync complete")
	return res, nil
}

func (s *Syncer) hasUpstream(ctx context.Context, dir string) bool {
	out, err := s.git(ctx, dir, "rev-parse", "--abbrev-ref", "@{u}")
	return err == nil && strings.TrimSpace(string(out)) != ""
}

func (s *Syncer) pull(ctx context.Context, dir string) (string, error) {
	_, err := s.git(ctx, dir, "pull", "--rebase")
	if err == nil {
		return "rebase", nil
	}
	s.log.Warn().Err(err).Msg("rebase failed, trying merge")
	_, _ = s.git(ctx, dir, "rebase", "--abort")

	if _, err := s.git(ctx, dir, "pull", "--no-rebase"); err != nil {
		_, _ = s.git(ctx, dir, "merge", "--abort")
		return "", ErrConflict
	}
	return "merge", nil
}
