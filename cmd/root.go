package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/changerec/internal/config"
	"github.com/fakeyudi/changerec/internal/logging"
	"github.com/fakeyudi/changerec/internal/vcs"
)

// Persistent flags.
var (
	rootFlag    string
	logFileFlag string
	verbose     bool
)

// Resolved in PersistentPreRunE.
var (
	cfg      config.Config
	repoRoot string
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "changerec",
	Short: "Record uncommitted changes as numbered versions in a markdown change log",
	Long: `changerec records every file changed since its last run into change_log.md,
newest version first, copies the record to the clipboard, and stages the files
so the next run only sees new edits.

Run without a subcommand to record.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(cmd.Context())
		if err != nil {
			return err
		}
		repoRoot = root

		c, err := config.Load(root)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if logFileFlag != "" {
			c.LogFile = logFileFlag
			if err := c.Validate(); err != nil {
				return err
			}
		}
		if verbose {
			c.Logging.Level = "debug"
		}
		cfg = c

		logger = logging.New(cfg.Logging, cmd.ErrOrStderr())
		logger.Debug("resolved repository", "root", repoRoot, "log_file", cfg.LogFile)
		return nil
	},
	RunE: runRecord,
}

// resolveRoot returns the git work tree enclosing --root (or the current
// directory when --root is unset), falling back to that directory itself.
func resolveRoot(ctx context.Context) (string, error) {
	if rootFlag != "" {
		abs, err := filepath.Abs(rootFlag)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("repository root: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("repository root %s is not a directory", abs)
		}
		return topLevelOr(ctx, abs), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return topLevelOr(ctx, cwd), nil
}

// topLevelOr returns the work tree containing dir, or dir itself outside one.
// git reports detection paths from the top of the work tree, so a
// subdirectory is never used as the root.
func topLevelOr(ctx context.Context, dir string) string {
	if top, err := vcs.TopLevel(ctx, dir, nil); err == nil {
		return filepath.FromSlash(top)
	}
	return dir
}

// logPath is the absolute path of the change log.
func logPath() string {
	return filepath.Join(repoRoot, filepath.FromSlash(cfg.LogFile))
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "repository root (default: the enclosing git work tree)")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "change log path relative to the root (default from config: change_log.md)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
}
