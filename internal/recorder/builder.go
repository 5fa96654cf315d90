package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fakeyudi/changerec/internal/changelog"
	"github.com/fakeyudi/changerec/internal/logging"
	"github.com/fakeyudi/changerec/internal/vcs"
	"github.com/fakeyudi/changerec/internal/workspace"
)

// Clock returns the current time. Tests pass a fixed clock.
type Clock func() time.Time

// Builder assembles a VersionRecord from changed paths.
type Builder struct {
	Snapshot vcs.Snapshot
	Files    workspace.FS
	Clock    Clock // if nil, time.Now
	Logger   *slog.Logger
}

// Build returns a record with one section per change, in order. Callers pass
// only changes whose files exist. Read and diff failures become placeholders.
func (b *Builder) Build(ctx context.Context, changes ChangeSet, version int) *changelog.VersionRecord {
	clock := b.Clock
	if clock == nil {
		clock = time.Now
	}

	r := &changelog.VersionRecord{
		Version:  version,
		Time:     clock().Format(changelog.TimeLayout),
		Sections: make([]changelog.FileSection, 0, len(changes)),
	}
	for _, c := range changes {
		content, readErr := b.content(c.Path)
		r.Sections = append(r.Sections, changelog.FileSection{
			Path:    c.Path,
			Content: content,
			Diff:    b.diff(ctx, c, content, readErr == nil),
		})
	}
	return r
}

func (b *Builder) content(path string) (string, error) {
	data, err := b.Files.ReadFile(path)
	if err != nil {
		b.logger().Warn("reading changed file failed", "path", path, "err", err)
		return changelog.ReadError(err), err
	}
	return string(data), nil
}

// diff tries the worktree-vs-index diff, then worktree-vs-HEAD. An untracked
// file has neither, so its whole content is shown as added.
func (b *Builder) diff(ctx context.Context, c Change, content string, readable bool) string {
	d, err := b.Snapshot.DiffWorktree(ctx, c.Path)
	if err != nil {
		b.logger().Warn("diff against index failed", "path", c.Path, "err", err)
		return changelog.NoDiff
	}
	if strings.TrimSpace(d) != "" {
		return d
	}

	d, err = b.Snapshot.DiffHead(ctx, c.Path)
	if err != nil && !c.Untracked {
		b.logger().Warn("diff against HEAD failed", "path", c.Path, "err", err)
		return changelog.NoDiff
	}
	if err == nil && strings.TrimSpace(d) != "" {
		return d
	}

	if c.Untracked && readable {
		return additionDiff(c.Path, content)
	}
	return ""
}

// additionDiff renders content as a unified diff against an empty file.
func additionDiff(path, content string) string {
	trimmed := strings.TrimRight(content, "\n")
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- /dev/null\n+++ b/%s\n@@ -0,0 +1,%d @@\n", path, len(lines))
	for _, l := range lines {
		sb.WriteString("+" + l + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return logging.Discard()
	}
	return b.Logger
}
