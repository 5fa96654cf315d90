package clipboard

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/x/term"
)

// OSC52 writes the text as a terminal clipboard escape sequence. Most modern
// terminal emulators honour it, including over SSH.
type OSC52 struct {
	Out        io.Writer
	IsTerminal func() bool
	Getenv     func(string) string
}

// NewOSC52 returns an OSC52 sink that writes to stderr when it is a terminal.
func NewOSC52() *OSC52 {
	return &OSC52{
		Out:        os.Stderr,
		IsTerminal: func() bool { return term.IsTerminal(os.Stderr.Fd()) },
		Getenv:     os.Getenv,
	}
}

func (o *OSC52) Name() string { return "osc52" }

func (o *OSC52) Publish(_ context.Context, text string) error {
	if o.Out == nil || o.IsTerminal == nil || !o.IsTerminal() {
		return ErrUnavailable
	}

	seq := osc52.New(text)
	getenv := o.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	switch {
	case getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(getenv("TERM"), "screen"):
		seq = seq.Screen()
	}

	_, err := seq.WriteTo(o.Out)
	return err
}
