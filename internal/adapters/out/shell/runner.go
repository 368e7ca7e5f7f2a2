// Package shell runs external commands and captures their output.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Runner executes a command synchronously and returns its stdout and stderr
// split into lines. On a non-zero exit it logs every captured line before
// returning the error, so the operator can diagnose without re-running.
type Runner struct {
	log *log.Logger
}

// NewRunner creates a new runner.
func NewRunner(logger *log.Logger) *Runner {
	return &Runner{log: logger}
}

// Run executes name with args in dir and blocks until completion. There is
// no timeout beyond what ctx carries.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) ([]string, []string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout := splitLines(outBuf.String())
	stderr := splitLines(errBuf.String())

	if runErr != nil {
		for i, line := range stdout {
			r.log.Error(fmt.Sprintf("stdout.%04d: %s", i, line))
		}
		for i, line := range stderr {
			r.log.Error(fmt.Sprintf("stderr.%04d: %s", i, line))
		}
		return stdout, stderr, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), runErr)
	}

	return stdout, stderr, nil
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
