// Package workspace is the recorder's read-only view of the working tree.
package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FS reads files by repository-relative path.
type FS interface {
	ReadFile(path string) ([]byte, error)
	Exists(path string) bool
}

// Dir is an FS rooted at a directory on disk.
type Dir struct {
	Root string
}

var _ FS = Dir{}

// Abs resolves a repository-relative path against Root.
func (d Dir) Abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(d.Root, filepath.FromSlash(path))
}

func (d Dir) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(d.Abs(path))
}

// Exists reports whether path exists (file or directory).
func (d Dir) Exists(path string) bool {
	_, err := os.Stat(d.Abs(path))
	return err == nil
}

// MemFS is an in-memory FS. Safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	fail  map[string]error
}

var _ FS = (*MemFS)(nil)

// NewMemFS returns a MemFS seeded with files.
func NewMemFS(files map[string]string) *MemFS {
	m := &MemFS{files: make(map[string][]byte), fail: make(map[string]error)}
	for p, c := range files {
		m.files[filepath.ToSlash(p)] = []byte(c)
	}
	return m
}

// Write creates or replaces path.
func (m *MemFS) Write(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.ToSlash(path)] = []byte(content)
}

// Remove deletes path.
func (m *MemFS) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, filepath.ToSlash(path))
}

// FailReads makes ReadFile on path return err while Exists still reports true.
func (m *MemFS) FailReads(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[filepath.ToSlash(path)] = err
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := filepath.ToSlash(path)
	if err, ok := m.fail[key]; ok {
		return nil, err
	}
	data, ok := m.files[key]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemFS) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := filepath.ToSlash(path)
	if _, ok := m.fail[key]; ok {
		return true
	}
	_, ok := m.files[key]
	return ok
}

// IsNotExist reports whether err means the file is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
