package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/changerec/internal/recorder"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pending changes and the next version number without recording",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := recorder.New(repoRoot, cfg, logger)
		if err != nil {
			return err
		}

		next, err := rec.NextVersion()
		if err != nil {
			return err
		}
		det := rec.Detect(cmd.Context())
		for _, w := range det.Warnings {
			cmd.PrintErrf("warning: %s\n", w)
		}

		cmd.Printf("Log file: %s\n", cfg.LogFile)
		cmd.Printf("Next version: %03d\n", next)
		cmd.Printf("Pending changes: %d\n", len(det.Changes))
		_, deleted := det.Changes.Existing(rec.Files)
		gone := make(map[string]bool, len(deleted))
		for _, p := range deleted {
			gone[p] = true
		}
		for _, c := range det.Changes {
			switch {
			case gone[c.Path]:
				cmd.Printf("  D %s\n", c.Path)
			case c.Untracked:
				cmd.Printf("  A %s\n", c.Path)
			default:
				cmd.Printf("  M %s\n", c.Path)
			}
		}
		if n := len(det.Ignored); n > 0 {
			cmd.Printf("Ignored: %d\n", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
