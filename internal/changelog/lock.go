package changelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrLocked is returned by AcquireLock when another run holds the lock.
var ErrLocked = errors.New("change log is locked by another run")

// LockSuffix is appended to the log path to name its lock file.
const LockSuffix = ".lock"

// Lock is an exclusive lock file next to the change log. It serialises
// recorder runs against the same log and index; it is advisory only.
type Lock struct {
	path  string
	owner lockOwner
}

type lockOwner struct {
	Token    string    `json:"token"`
	PID      int       `json:"pid"`
	Acquired time.Time `json:"acquired"`
}

// LockPath returns the lock file path for logPath.
func LockPath(logPath string) string {
	return logPath + LockSuffix
}

// AcquireLock creates the lock file for logPath, failing with ErrLocked if it exists.
func AcquireLock(logPath string) (*Lock, error) {
	l := &Lock{
		path: LockPath(logPath),
		owner: lockOwner{
			Token:    uuid.New().String(),
			PID:      os.Getpid(),
			Acquired: time.Now().UTC().Truncate(time.Second),
		},
	}
	data, err := json.Marshal(l.owner)
	if err != nil {
		return nil, err
	}

	// The log may live in a directory that Store.Write has not created yet.
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, lockedError(l.path)
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(l.path)
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(l.path)
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}
	return l, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock file if it still carries this lock's token.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	holder, err := readOwner(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}
	if holder.Token != l.owner.Token {
		return fmt.Errorf("lock file %s is owned by another run (pid %d), leaving it in place", l.path, holder.PID)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

func readOwner(path string) (lockOwner, error) {
	var o lockOwner
	data, err := os.ReadFile(path)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("malformed lock file %s: %w", path, err)
	}
	return o, nil
}

func lockedError(path string) error {
	holder, err := readOwner(path)
	if err != nil {
		return fmt.Errorf("%w: %s exists; remove it if no run is active", ErrLocked, path)
	}
	return fmt.Errorf("%w: %s held by pid %d since %s; remove it if no run is active",
		ErrLocked, path, holder.PID, holder.Acquired.Format(time.RFC3339))
}
