// Package recorder detects uncommitted changes, prepends a numbered record of
// them to the change log, and advances the snapshot so the next run starts
// from here.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fakeyudi/changerec/internal/changelog"
	"github.com/fakeyudi/changerec/internal/clipboard"
	"github.com/fakeyudi/changerec/internal/config"
	"github.com/fakeyudi/changerec/internal/logging"
	"github.com/fakeyudi/changerec/internal/vcs"
	"github.com/fakeyudi/changerec/internal/workspace"
)

// Recorder runs one detect, record, copy, stage cycle.
type Recorder struct {
	Root      string
	LogPath   string // absolute
	Snapshot  vcs.Snapshot
	Files     workspace.FS
	Matcher   *Matcher
	Clipboard clipboard.Publisher // nil skips copying
	Clock     Clock
	Lock      bool
	DryRun    bool
	Logger    *slog.Logger
}

// Result describes what a run did.
type Result struct {
	Detection Detection
	Deleted   []string                 // changed paths that no longer exist
	Record    *changelog.VersionRecord // nil when nothing was recorded
	Text      string                   // the rendered record
	Written   bool
	Copied    bool
	CopyErr   error
	Advance   AdvanceResult
	Warnings  []string
}

// Changed reports whether the run found anything to record or stage.
func (r *Result) Changed() bool {
	return len(r.Detection.Changes) > 0
}

// New wires a Recorder for the repository at root using cfg.
func New(root string, cfg config.Config, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	extra, err := LoadIgnoreFile(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFile, err)
	}
	m := NewMatcher(DefaultIgnorePatterns...)
	m.Add(cfg.IgnorePatterns...)
	m.Add(extra...)
	m.Exclude(cfg.LogFile, changelog.LockPath(cfg.LogFile))

	// A nil publisher means copying is switched off and is not reported.
	var pub clipboard.Publisher
	if cfg.Clipboard != config.ClipboardOff {
		pub = clipboard.New(logger)
	}

	return &Recorder{
		Root:      root,
		LogPath:   filepath.Join(root, filepath.FromSlash(cfg.LogFile)),
		Snapshot:  &vcs.Git{Root: root},
		Files:     workspace.Dir{Root: root},
		Matcher:   m,
		Clipboard: pub,
		Lock:      cfg.LockEnabled(),
		Logger:    logger,
	}, nil
}

// Detect runs change detection only. It never modifies anything.
func (r *Recorder) Detect(ctx context.Context) Detection {
	d := &Detector{Snapshot: r.Snapshot, Files: r.Files, Matcher: r.Matcher, Logger: r.Logger}
	return d.Detect(ctx)
}

// NextVersion returns the version the next record would get.
func (r *Recorder) NextVersion() (int, error) {
	doc, err := (&changelog.Store{Path: r.LogPath}).Load()
	if err != nil {
		return 0, err
	}
	return doc.NextVersion(), nil
}

// Run records the current changes. The returned error is non-nil only when
// the run could not complete: the lock is held or the log could not be
// read or written. Everything else is reported in the Result.
func (r *Recorder) Run(ctx context.Context) (*Result, error) {
	logger := r.logger()

	if r.Lock && !r.DryRun {
		lock, err := changelog.AcquireLock(r.LogPath)
		if err != nil {
			return nil, err
		}
		defer func() {
			if rerr := lock.Release(); rerr != nil {
				logger.Warn("releasing lock failed", "path", lock.Path(), "err", rerr)
			}
		}()
	}

	res := &Result{Detection: r.Detect(ctx)}
	res.Warnings = append(res.Warnings, res.Detection.Warnings...)
	changes := res.Detection.Changes
	if len(changes) == 0 {
		return res, nil
	}

	present, deleted := changes.Existing(r.Files)
	res.Deleted = deleted

	if len(present) > 0 {
		store := &changelog.Store{Path: r.LogPath}
		doc, err := store.Load()
		if err != nil {
			return res, err
		}

		b := &Builder{Snapshot: r.Snapshot, Files: r.Files, Clock: r.Clock, Logger: r.Logger}
		res.Record = b.Build(ctx, present, doc.NextVersion())
		res.Text = changelog.Render(res.Record)
		if r.DryRun {
			return res, nil
		}

		if err := store.Write(doc, doc.Prepend(res.Text)); err != nil {
			return res, fmt.Errorf("failed to record version %03d: %w", res.Record.Version, err)
		}
		res.Written = true
		logger.Info("recorded version", "version", res.Record.Version, "files", len(present), "log", r.LogPath)

		r.copy(ctx, res)
	} else if r.DryRun {
		return res, nil
	}

	a := &Advancer{Snapshot: r.Snapshot, Logger: r.Logger}
	res.Advance = a.Advance(ctx, changes.Paths())
	return res, nil
}

func (r *Recorder) copy(ctx context.Context, res *Result) {
	if r.Clipboard == nil {
		return
	}
	if err := r.Clipboard.Publish(ctx, res.Text); err != nil {
		res.CopyErr = err
		if !errors.Is(err, clipboard.ErrUnavailable) {
			r.logger().Warn("clipboard copy failed", "err", err)
		}
		return
	}
	res.Copied = true
}

func (r *Recorder) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}
