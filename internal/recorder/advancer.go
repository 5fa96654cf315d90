package recorder

import (
	"context"
	"log/slog"

	"github.com/fakeyudi/changerec/internal/vcs"
)

// PathError is a per-path staging failure.
type PathError struct {
	Path string
	Err  error
}

func (e PathError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e PathError) Unwrap() error { return e.Err }

// AdvanceResult reports how many paths were staged.
type AdvanceResult struct {
	Attempted int
	Staged    []string
	Failures  []PathError
}

// Advancer moves the snapshot forward so the next run only sees new edits.
type Advancer struct {
	Snapshot vcs.Snapshot
	Logger   *slog.Logger
}

// Advance stages each path independently; one failure never stops the rest.
// A path that fails stays changed and is picked up again by the next run.
func (a *Advancer) Advance(ctx context.Context, paths []string) AdvanceResult {
	res := AdvanceResult{Attempted: len(paths)}
	for _, p := range paths {
		if err := a.Snapshot.Stage(ctx, p); err != nil {
			if a.Logger != nil {
				a.Logger.Warn("staging failed", "path", p, "err", err)
			}
			res.Failures = append(res.Failures, PathError{Path: p, Err: err})
			continue
		}
		res.Staged = append(res.Staged, p)
	}
	return res
}
