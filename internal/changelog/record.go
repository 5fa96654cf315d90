// Package changelog owns the change log document: the record model, its
// markdown rendering, version allocation, and the read-modify-write store.
package changelog

// TimeLayout is the timestamp layout written into each record.
const TimeLayout = "2006-01-02 15:04:05"

// Placeholders substituted when a section cannot be filled.
const (
	ReadErrorPrefix = "<<unable to read file: "
	NoDiff          = "<<no diff>>"
)

// VersionRecord is one numbered entry of the change log.
// Records are built once and never edited.
type VersionRecord struct {
	Version  int
	Time     string
	Sections []FileSection
}

// FileSection is one file's contribution to a VersionRecord.
type FileSection struct {
	Path    string
	Content string
	Diff    string // empty when there is nothing to annotate
}

// Paths returns the section paths in record order.
func (r *VersionRecord) Paths() []string {
	paths := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		paths[i] = s.Path
	}
	return paths
}

// ReadError formats the content placeholder for an unreadable file.
func ReadError(err error) string {
	return ReadErrorPrefix + err.Error() + ">>"
}
