package recorder_test

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/fakeyudi/changerec/internal/vcs"
)

// fakeSnapshot models the index: staging a path removes it from both lists.
type fakeSnapshot struct {
	mu        sync.Mutex
	unstaged  []string
	untracked []string
	listErr   error
	worktree  map[string]string
	head      map[string]string
	diffErr   map[string]error
	headErr   map[string]error
	stageErr  map[string]error
	staged    []string
}

var _ vcs.Snapshot = (*fakeSnapshot)(nil)

func (f *fakeSnapshot) UnstagedPaths(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.unstaged), nil
}

func (f *fakeSnapshot) UntrackedPaths(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.untracked), nil
}

func (f *fakeSnapshot) DiffWorktree(_ context.Context, path string) (string, error) {
	if err := f.diffErr[path]; err != nil {
		return "", err
	}
	return f.worktree[path], nil
}

func (f *fakeSnapshot) DiffHead(_ context.Context, path string) (string, error) {
	if err := f.headErr[path]; err != nil {
		return "", err
	}
	return f.head[path], nil
}

func (f *fakeSnapshot) Stage(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.stageErr[path]; err != nil {
		return err
	}
	f.staged = append(f.staged, path)
	f.unstaged = slices.DeleteFunc(f.unstaged, func(p string) bool { return p == path })
	f.untracked = slices.DeleteFunc(f.untracked, func(p string) bool { return p == path })
	return nil
}

type fakeClipboard struct {
	texts []string
	err   error
}

func (c *fakeClipboard) Publish(_ context.Context, text string) error {
	c.texts = append(c.texts, text)
	return c.err
}

var errBoom = errors.New("boom")
