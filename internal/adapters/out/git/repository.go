// Package git adapts a local git working tree for branch-driven discovery.
package git

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

type commandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []string, err error)
}

// Repository wraps a git working tree. All git commands run in the
// repository directory; the working tree is checked out in place, so nothing
// else should be mutating it during a run.
type Repository struct {
	dir    string
	runner commandRunner
	log    *log.Logger
}

// NewRepository creates a repository rooted at dir.
func NewRepository(dir string, runner commandRunner, logger *log.Logger) *Repository {
	return &Repository{
		dir:    dir,
		runner: runner,
		log:    logger,
	}
}

// IsDirty reports whether the working tree has uncommitted changes, going by
// `git diff HEAD` producing any output. Untracked files do not count.
func (r *Repository) IsDirty(ctx context.Context) (bool, error) {
	stdout, stderr, err := r.runner.Run(ctx, r.dir, "git", "diff", "HEAD")
	if err != nil {
		return false, fmt.Errorf("failed to diff repository: %w", err)
	}

	return len(stdout) > 0 || len(stderr) > 0, nil
}

// Checkout switches the working tree to branch.
func (r *Repository) Checkout(ctx context.Context, branch string) error {
	if _, _, err := r.runner.Run(ctx, r.dir, "git", "checkout", branch); err != nil {
		return err
	}

	r.log.Debug("checked out branch", "branch", branch)
	return nil
}

// Discover runs the operator-supplied discovery command in the repository
// directory and returns its stdout lines.
func (r *Repository) Discover(ctx context.Context, command string) ([]string, error) {
	stdout, _, err := r.runner.Run(ctx, r.dir, "bash", "-c", command)
	if err != nil {
		return nil, err
	}

	return stdout, nil
}
