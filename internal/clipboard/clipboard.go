// Package clipboard copies recorded text to the system clipboard on a best
// effort basis.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/fakeyudi/changerec/internal/logging"
)

// ErrUnavailable is returned when no mechanism could take the text.
var ErrUnavailable = errors.New("clipboard unavailable")

// Publisher puts text on a clipboard.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// Sink is one clipboard mechanism in a Chain.
type Sink interface {
	Publisher
	Name() string
}

// Noop is a Publisher for headless environments; it always reports ErrUnavailable.
type Noop struct{}

func (Noop) Publish(context.Context, string) error { return ErrUnavailable }

func (Noop) Name() string { return "none" }

// Chain tries each sink in order and stops at the first one that succeeds.
type Chain struct {
	Sinks  []Sink
	Logger *slog.Logger
}

// Attempt is one failed sink in a ChainError.
type Attempt struct {
	Sink string
	Err  error
}

// ChainError reports every sink that failed. It matches ErrUnavailable.
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrUnavailable.Error() + ": no mechanism configured"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Sink, a.Err)
	}
	return ErrUnavailable.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ChainError) Is(target error) bool { return target == ErrUnavailable }

// Publish hands text to the first sink that accepts it.
func (c *Chain) Publish(ctx context.Context, text string) error {
	logger := c.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	cerr := &ChainError{}
	for _, s := range c.Sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.Publish(ctx, text)
		if err == nil {
			logger.Debug("copied to clipboard", "sink", s.Name(), "chars", len([]rune(text)))
			return nil
		}
		logger.Debug("clipboard sink failed", "sink", s.Name(), "err", err)
		cerr.Attempts = append(cerr.Attempts, Attempt{Sink: s.Name(), Err: err})
	}
	return cerr
}

// New returns the default chain for the running platform.
func New(logger *slog.Logger) *Chain {
	return &Chain{Sinks: ForPlatform(runtime.GOOS, nil, NewOSC52()), Logger: logger}
}

// ForPlatform returns the command sinks for goos in preference order, followed
// by the terminal escape sequence sink.
func ForPlatform(goos string, run ExecFunc, osc Sink) []Sink {
	var sinks []Sink
	for _, argv := range commandsFor(goos) {
		sinks = append(sinks, &Command{Path: argv[0], Args: argv[1:], Exec: run})
	}
	if osc != nil {
		sinks = append(sinks, osc)
	}
	return sinks
}

func commandsFor(goos string) [][]string {
	switch goos {
	case "darwin":
		return [][]string{{"pbcopy"}}
	case "windows":
		return [][]string{{"clip"}}
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos":
		return [][]string{
			{"xclip", "-selection", "clipboard"},
			{"xsel", "--clipboard", "--input"},
			{"wl-copy"},
		}
	default:
		return nil
	}
}
