package changelog

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Markers in the rendered document. The version marker is what NextVersion scans for.
const (
	separator      = "---"
	versionFormat  = "## VERSION %03d 📝"
	timeLabel      = "**Time:** "
	annotationHead = "**Change annotation:**"
	noChanges      = "_No changes_"
)

// Render formats r as the markdown block that is prepended to the log.
// The output is a pure function of r.
func Render(r *VersionRecord) string {
	var sb strings.Builder

	sb.WriteString("\n\n" + separator + "\n")
	fmt.Fprintf(&sb, versionFormat+"\n", r.Version)
	sb.WriteString(timeLabel + r.Time + "\n")

	quoted := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		quoted[i] = "`" + s.Path + "`"
	}
	fmt.Fprintf(&sb, "\n**%d files changed: %s**\n", len(r.Sections), strings.Join(quoted, ", "))

	sections := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		sections[i] = renderSection(s)
	}
	sb.WriteString(strings.Join(sections, "\n"))

	return sb.String()
}

func renderSection(s FileSection) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", s.Path)
	fmt.Fprintf(&sb, "```%s\n%s\n```\n\n", fenceLang(s.Path), s.Content)
	if strings.TrimSpace(s.Diff) == "" {
		sb.WriteString(noChanges + "\n")
	} else {
		fmt.Fprintf(&sb, "%s\n```diff\n%s\n```\n", annotationHead, s.Diff)
	}
	return sb.String()
}

// fenceLang is the code fence info string: the file extension without its dot.
func fenceLang(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}
