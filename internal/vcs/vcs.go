// Package vcs exposes the git index as the recorder's snapshot pointer.
//
// The recorder never stores snapshot state itself: "changed since the last
// snapshot" means the working tree differs from the index, and advancing the
// snapshot for a path means staging it.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Snapshot is the capability set the recorder consumes.
type Snapshot interface {
	// UnstagedPaths lists tracked paths whose working-tree content differs from the index.
	UnstagedPaths(ctx context.Context) ([]string, error)
	// UntrackedPaths lists paths git does not track and does not ignore.
	UntrackedPaths(ctx context.Context) ([]string, error)
	// DiffWorktree returns the working tree vs index diff for path.
	DiffWorktree(ctx context.Context, path string) (string, error)
	// DiffHead returns the working tree vs HEAD diff for path.
	DiffHead(ctx context.Context, path string) (string, error)
	// Stage advances the snapshot for path.
	Stage(ctx context.Context, path string) error
}

// ErrNotRepository is returned when the working directory is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Runner executes a git command in workDir and returns its stdout.
// This abstraction allows mocking in tests.
type Runner func(ctx context.Context, workDir string, args ...string) (string, error)

// CommandError describes a git invocation that exited unsuccessfully.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := "git " + strings.Join(e.Args, " ") + ": " + e.Err.Error()
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// DefaultRunner runs git as a real subprocess.
func DefaultRunner(ctx context.Context, workDir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = workDir
	out, err := cmd.Output()
	if err != nil {
		cerr := &CommandError{Args: args, ExitCode: -1, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr.ExitCode = exitErr.ExitCode()
			cerr.Stderr = strings.TrimSpace(string(exitErr.Stderr))
		}
		return "", cerr
	}
	return string(out), nil
}

// Git implements Snapshot against a git work tree.
type Git struct {
	Root   string
	Runner Runner // if nil, uses the real git subprocess
}

var _ Snapshot = (*Git)(nil)

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	runner := g.Runner
	if runner == nil {
		runner = DefaultRunner
	}
	out, err := runner(ctx, g.Root, args...)
	if err != nil && isNotRepository(err) {
		return "", fmt.Errorf("%s: %w", g.Root, ErrNotRepository)
	}
	return out, err
}

func (g *Git) UnstagedPaths(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "diff", "--name-only")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (g *Git) UntrackedPaths(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (g *Git) DiffWorktree(ctx context.Context, path string) (string, error) {
	out, err := g.run(ctx, "diff", "--", path)
	return strings.TrimRight(out, "\n"), err
}

func (g *Git) DiffHead(ctx context.Context, path string) (string, error) {
	out, err := g.run(ctx, "diff", "HEAD", "--", path)
	return strings.TrimRight(out, "\n"), err
}

func (g *Git) Stage(ctx context.Context, path string) error {
	_, err := g.run(ctx, "add", "--", path)
	return err
}

// TopLevel returns the root of the work tree containing dir.
func TopLevel(ctx context.Context, dir string, runner Runner) (string, error) {
	g := &Git{Root: dir, Runner: runner}
	out, err := g.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return "", fmt.Errorf("%s: %w", dir, ErrNotRepository)
	}
	return root, nil
}

// isNotRepository reports whether err is git's exit-128 "not a git repository" failure.
func isNotRepository(err error) bool {
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return cerr.ExitCode == 128 && strings.Contains(cerr.Stderr, "not a git repository")
	}
	return false
}

// splitLines splits command output into lines, discarding empty ones.
func splitLines(output string) []string {
	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			result = append(result, l)
		}
	}
	return result
}
