package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fakeyudi/changerec/internal/logging"
	"github.com/fakeyudi/changerec/internal/vcs"
	"github.com/fakeyudi/changerec/internal/workspace"
)

// Change is one path in a ChangeSet.
type Change struct {
	Path      string
	Untracked bool
}

// ChangeSet is the ordered, de-duplicated list of paths changed since the last
// snapshot. Tracked modifications come first, then untracked files, each in
// the order git reported them.
type ChangeSet []Change

// Paths returns the paths in order.
func (cs ChangeSet) Paths() []string {
	paths := make([]string, len(cs))
	for i, c := range cs {
		paths[i] = c.Path
	}
	return paths
}

// Existing splits cs into paths still present in files and paths that are gone.
func (cs ChangeSet) Existing(files workspace.FS) (present ChangeSet, deleted []string) {
	for _, c := range cs {
		if files.Exists(c.Path) {
			present = append(present, c)
		} else {
			deleted = append(deleted, c.Path)
		}
	}
	return present, deleted
}

// Detection is the outcome of one Detect call.
type Detection struct {
	Changes  ChangeSet
	Ignored  []string // paths dropped by the Matcher
	Warnings []string // non-fatal issues; a failed query leaves Changes empty
}

// Detector lists paths that differ from the snapshot.
type Detector struct {
	Snapshot vcs.Snapshot
	Files    workspace.FS
	Matcher  *Matcher
	Logger   *slog.Logger
}

// Detect queries the snapshot for unstaged and untracked paths. Any query
// failure degrades to an empty ChangeSet with a warning.
func (d *Detector) Detect(ctx context.Context) Detection {
	logger := d.logger()

	unstaged, err := d.Snapshot.UnstagedPaths(ctx)
	if err != nil {
		logger.Warn("listing unstaged paths failed", "err", err)
		return Detection{Warnings: []string{fmt.Sprintf("failed to detect changes: %v", err)}}
	}
	untracked, err := d.Snapshot.UntrackedPaths(ctx)
	if err != nil {
		logger.Warn("listing untracked paths failed", "err", err)
		return Detection{Warnings: []string{fmt.Sprintf("failed to detect changes: %v", err)}}
	}

	var det Detection
	seen := make(map[string]bool, len(unstaged)+len(untracked))
	add := func(raw string, isUntracked bool) {
		p := d.decode(raw)
		if seen[p] {
			return
		}
		seen[p] = true
		if d.Matcher != nil && d.Matcher.Match(p) {
			det.Ignored = append(det.Ignored, p)
			return
		}
		det.Changes = append(det.Changes, Change{Path: p, Untracked: isUntracked})
	}
	for _, p := range unstaged {
		add(p, false)
	}
	for _, p := range untracked {
		add(p, true)
	}

	logger.Debug("detected changes",
		"unstaged", len(unstaged), "untracked", len(untracked),
		"recorded", len(det.Changes), "ignored", len(det.Ignored))
	return det
}

// decode undoes git's C-style quoting of unusual path names. The decoded form
// is only used when it names a file that exists; otherwise raw is kept.
func (d *Detector) decode(raw string) string {
	if len(raw) < 2 || !strings.HasPrefix(raw, `"`) || !strings.HasSuffix(raw, `"`) {
		return raw
	}
	decoded, err := strconv.Unquote(raw)
	if err != nil {
		d.logger().Debug("could not unquote path", "path", raw, "err", err)
		return raw
	}
	if d.Files != nil && d.Files.Exists(decoded) {
		return decoded
	}
	return raw
}

func (d *Detector) logger() *slog.Logger {
	if d.Logger == nil {
		return logging.Discard()
	}
	return d.Logger
}
