package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecFunc runs name with args, feeding stdin to the process.
type ExecFunc func(ctx context.Context, name string, args []string, stdin string) error

// Command is a sink backed by an external clipboard program such as pbcopy.
type Command struct {
	Path string
	Args []string
	Exec ExecFunc // nil means RunCommand
}

func (c *Command) Name() string { return c.Path }

func (c *Command) Publish(ctx context.Context, text string) error {
	run := c.Exec
	if run == nil {
		run = RunCommand
	}
	return run(ctx, c.Path, c.Args, text)
}

// RunCommand is the default ExecFunc. A program missing from PATH is reported
// as ErrUnavailable.
func RunCommand(ctx context.Context, name string, args []string, stdin string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %s not found", ErrUnavailable, name)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
