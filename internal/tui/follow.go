package tui

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to the change log file.
//
// It watches the containing directory rather than the file: the log is
// replaced by rename on every write, which drops a watch on the file itself.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// Watch starts watching path.
func Watch(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{path: abs, watcher: w}, nil
}

// Next returns a command that blocks until the log changes, then reads it.
// The command yields nil once the watcher is closed.
func (w *Watcher) Next() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if msg, ok := w.read(); ok {
					return msg
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}
				return DocumentMsg{Err: err}
			}
		}
	}
}

// read loads the log. A missing file is skipped until it is written again.
func (w *Watcher) read() (DocumentMsg, bool) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DocumentMsg{}, false
		}
		return DocumentMsg{Err: err}, true
	}
	return DocumentMsg{Text: string(data)}, true
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
