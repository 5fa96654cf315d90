package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/changerec/internal/changelog"
	"github.com/fakeyudi/changerec/internal/recorder"
)

var (
	dryRun      bool
	noClipboard bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record changed files as the next version (the default command)",
	Args:  cobra.NoArgs,
	RunE:  runRecord,
}

func runRecord(cmd *cobra.Command, args []string) error {
	rec, err := recorder.New(repoRoot, cfg, logger)
	if err != nil {
		return err
	}
	rec.DryRun = dryRun
	if noClipboard {
		rec.Clipboard = nil
	}

	cmd.Println("🔍 Detecting changes since the last record...")
	res, err := rec.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, changelog.ErrLocked) {
			return fmt.Errorf("another changerec run is in progress: %w", err)
		}
		return err
	}

	for _, w := range res.Warnings {
		cmd.PrintErrf("warning: %s\n", w)
	}
	if !res.Changed() {
		cmd.Println("✅ No new changes detected")
		return nil
	}

	printDetected(cmd, res)

	switch {
	case dryRun && res.Record != nil:
		fmt.Fprint(cmd.OutOrStdout(), res.Text+"\n\n")
		cmd.Printf("dry run: version %03d not written, nothing copied or staged\n", res.Record.Version)
		return nil
	case dryRun:
		cmd.Println("dry run: only deletions pending, nothing to record")
		return nil
	case res.Record == nil:
		cmd.Println("ℹ Only deleted files changed; no version recorded")
	default:
		cmd.Printf("✅ Recorded version %03d to %s\n", res.Record.Version, rec.LogPath)
	}

	printStaging(cmd, res.Advance)

	switch {
	case res.Copied:
		cmd.Printf("📋 Copied to clipboard (%d characters)\n", len([]rune(res.Text)))
	case res.CopyErr != nil:
		cmd.PrintErrln("⚠️  Could not copy to clipboard; copy the record from the log instead")
	}
	return nil
}

func printDetected(cmd *cobra.Command, res *recorder.Result) {
	deleted := make(map[string]bool, len(res.Deleted))
	for _, p := range res.Deleted {
		deleted[p] = true
	}
	cmd.Printf("📝 Detected %d changed file(s):\n", len(res.Detection.Changes))
	for _, c := range res.Detection.Changes {
		switch {
		case deleted[c.Path]:
			cmd.Printf("   - %s (deleted)\n", c.Path)
		case c.Untracked:
			cmd.Printf("   - %s (new)\n", c.Path)
		default:
			cmd.Printf("   - %s\n", c.Path)
		}
	}
}

func printStaging(cmd *cobra.Command, a recorder.AdvanceResult) {
	if a.Attempted == 0 {
		return
	}
	cmd.Println("🔄 Staging recorded files for the next run...")
	for _, p := range a.Staged {
		cmd.Printf("   ✓ %s\n", p)
	}
	for _, f := range a.Failures {
		cmd.Printf("   ✗ %s: %v\n", f.Path, f.Err)
	}
	cmd.Printf("✅ Staged %d/%d file(s)\n", len(a.Staged), a.Attempted)
	if len(a.Failures) > 0 {
		cmd.PrintErrln("warning: unstaged files will be recorded again on the next run")
	}
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, recordCmd} {
		c.Flags().BoolVar(&dryRun, "dry-run", false, "print the record without writing, copying or staging")
		c.Flags().BoolVar(&noClipboard, "no-clipboard", false, "do not copy the record to the clipboard")
	}
	rootCmd.AddCommand(recordCmd)
}
