// Package sync keeps the data directory in a git repository and exchanges
// it with a remote by shelling out to git.
package sync

import (
	"context"
	"fmt"
	"os/exec"
)

// Runner runs a command in a directory and returns its combined output.
type Runner interface {
	RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error)
}

// ExecRunner runs real processes.
type ExecRunner struct{}

func (ExecRunner) RunDir(ctx context.Context, dir, cmd string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Dir = dir
	out, err := c.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("exec %s in %s: %w", cmd, dir, err)
	}
	return out, nil
}
