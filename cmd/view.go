package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/changerec/internal/changelog"
	"github.com/fakeyudi/changerec/internal/tui"
)

var (
	plainOutput bool
	followLog   bool
	viewVersion int
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse the change log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := logPath()

		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("change log not found: %s", path)
			}
			return err
		}
		doc := string(data)
		out := cmd.OutOrStdout()

		if viewVersion >= 0 {
			for _, e := range changelog.Entries(doc) {
				if e.Version == viewVersion {
					fmt.Fprintln(out, e.Body)
					return nil
				}
			}
			return fmt.Errorf("version %03d not found in %s", viewVersion, cfg.LogFile)
		}

		if plainOutput || !isTerminal(out) {
			printLog(out, changelog.Entries(doc))
			return nil
		}

		var w *tui.Watcher
		if followLog {
			w, err = tui.Watch(path)
			if err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			defer w.Close()
		}
		return tui.Run(doc, path, w)
	},
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// printLog writes a plain-text index of the log, newest version first.
func printLog(w io.Writer, entries []changelog.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "(no recorded versions)")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "## VERSION %03d  %s  (%d files)\n", e.Version, e.Time, len(e.Files))
		for _, f := range e.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d version(s). Show one with: changerec view --version N\n", len(entries))
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	viewCmd.Flags().BoolVarP(&followLog, "follow", "f", false, "reload the viewer whenever the log changes")
	viewCmd.Flags().IntVar(&viewVersion, "version", -1, "print one version's full record and exit")
	rootCmd.AddCommand(viewCmd)
}
