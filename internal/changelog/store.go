package changelog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
)

// ErrConcurrentModification is returned by Write when the log on disk no
// longer matches what Load read.
var ErrConcurrentModification = errors.New("change log was modified since it was read")

// Store reads and rewrites the change log document at Path.
type Store struct {
	Path string
}

// Document is a snapshot of the log as read by Load.
type Document struct {
	Text   string
	Exists bool
	sum    xxh3.Uint128
}

// Load reads the log. An absent log yields an empty, non-existent Document.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}
	return &Document{Text: string(data), Exists: true, sum: xxh3.Hash128(data)}, nil
}

// NextVersion is the version the next record in this document gets.
func (d *Document) NextVersion() int {
	return NextVersion(d.Text)
}

// Prepend returns the document text with record placed before all existing content.
func (d *Document) Prepend(record string) string {
	return record + d.Text
}

// Write replaces the log with text, provided the file still matches doc.
// The new content is written to a temp file in the same directory and renamed
// over the log, so readers see either the old or the new document.
func (s *Store) Write(doc *Document, text string) (err error) {
	if err := s.verifyUnchanged(doc); err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to write change log: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write change log: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write change log: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write change log: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write change log: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to write change log: %w", err)
	}
	if err = os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("failed to write change log: %w", err)
	}
	return nil
}

func (s *Store) verifyUnchanged(doc *Document) error {
	data, err := os.ReadFile(s.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if doc.Exists {
			return fmt.Errorf("%w: %s was removed", ErrConcurrentModification, s.Path)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to re-read change log: %w", err)
	}
	if !doc.Exists || xxh3.Hash128(data) != doc.sum {
		return fmt.Errorf("%w: %s", ErrConcurrentModification, s.Path)
	}
	return nil
}
