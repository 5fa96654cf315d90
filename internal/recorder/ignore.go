package recorder

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreFile is the optional per-repository pattern file, one glob per line.
const IgnoreFile = ".changerecignore"

// DefaultIgnorePatterns are never recorded: VCS metadata, dependency and build
// output directories, OS marker files and scratch files.
var DefaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	"dist/",
	"__pycache__/",
	".DS_Store",
	"*.log",
	"*.pyc",
	"*.tmp",
}

// Matcher decides which changed paths are noise.
//
// Pattern rules follow .gitignore loosely: a pattern without a slash matches
// any path segment, a trailing slash restricts it to directories, and a
// pattern containing a slash is anchored at the repository root where ** spans
// any number of segments.
type Matcher struct {
	exact    map[string]bool
	patterns []string
}

// NewMatcher returns a Matcher for patterns. Blank lines and # comments are skipped.
func NewMatcher(patterns ...string) *Matcher {
	m := &Matcher{exact: make(map[string]bool)}
	m.Add(patterns...)
	return m
}

// Add appends patterns.
func (m *Matcher) Add(patterns ...string) {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		m.patterns = append(m.patterns, filepath.ToSlash(p))
	}
}

// Exclude adds exact repository-relative paths, such as the log document itself.
func (m *Matcher) Exclude(paths ...string) {
	for _, p := range paths {
		m.exact[cleanPath(p)] = true
	}
}

// Match reports whether p should be left out of the ChangeSet.
func (m *Matcher) Match(p string) bool {
	clean := cleanPath(p)
	if m.exact[clean] {
		return true
	}
	parts := strings.Split(clean, "/")
	for _, pat := range m.patterns {
		if matchPattern(pat, parts) {
			return true
		}
	}
	return false
}

// LoadIgnoreFile reads patterns from root/.changerecignore. A missing file yields none.
func LoadIgnoreFile(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}

func cleanPath(p string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
}

func matchPattern(pat string, parts []string) bool {
	dirOnly := strings.HasSuffix(pat, "/")
	pat = strings.TrimSuffix(pat, "/")

	if !strings.Contains(pat, "/") {
		// The last segment is the file itself; directory patterns skip it.
		candidates := parts
		if dirOnly {
			candidates = parts[:len(parts)-1]
		}
		for _, seg := range candidates {
			if ok, _ := path.Match(pat, seg); ok {
				return true
			}
		}
		return false
	}

	segs := strings.Split(strings.TrimPrefix(pat, "/"), "/")
	if dirOnly {
		segs = append(segs, "**")
	}
	return matchSegments(segs, parts)
}

// matchSegments matches pattern segments against path segments, with ** spanning zero or more.
func matchSegments(pats, parts []string) bool {
	for len(pats) > 0 {
		p := pats[0]
		pats = pats[1:]

		if p == "**" {
			if len(pats) == 0 {
				return len(parts) > 0
			}
			for i := 0; i <= len(parts); i++ {
				if matchSegments(pats, parts[i:]) {
					return true
				}
			}
			return false
		}

		if len(parts) == 0 {
			return false
		}
		if ok, _ := path.Match(p, parts[0]); !ok {
			return false
		}
		parts = parts[1:]
	}
	return len(parts) == 0
}
