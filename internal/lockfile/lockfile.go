// Package lockfile serializes sync passes against one source store across
// processes with an advisory file lock. The lock file records who holds it so
// a second process can say what it is waiting on.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLockBusy is returned when another process holds the lock.
var ErrLockBusy = errors.New("lock is held by another process")

// Info is written into the lock file by the holder.
type Info struct {
	PID       int       `json:"pid"`
	RunID     string    `json:"run_id,omitempty"`
	Command   string    `json:"command,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// BusyError describes the current holder of a busy lock.
type BusyError struct {
	Path   string
	Holder *Info // nil when the file could not be read
}

func (e *BusyError) Error() string {
	if e.Holder == nil {
		return fmt.Sprintf("%s: %v", e.Path, ErrLockBusy)
	}
	return fmt.Sprintf("%s: %v (pid %d, %s, since %s)", e.Path, ErrLockBusy,
		e.Holder.PID, e.Holder.Command, e.Holder.StartedAt.Format(time.RFC3339))
}

func (e *BusyError) Unwrap() error { return ErrLockBusy }

// Lock is a held lock. The OS drops it when the process exits.
type Lock struct {
	f    *os.File
	path string
}

// TryAcquire takes the lock at path without blocking.
func TryAcquire(path string, info Info) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	// #nosec G304 - path is derived from the configured source
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := flockExclusiveNonBlock(f); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrLockBusy) {
			holder, _ := ReadInfo(path)
			return nil, &BusyError{Path: path, Holder: holder}
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	if info.PID == 0 {
		info.PID = os.Getpid()
	}
	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now()
	}
	data, err := json.Marshal(info)
	if err == nil {
		if err = f.Truncate(0); err == nil {
			_, err = f.WriteAt(data, 0)
		}
	}
	if err != nil {
		_ = flockUnlock(f)
		_ = f.Close()
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	return &Lock{f: f, path: path}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. The file itself stays; an unlocked file is free.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = l.f.Truncate(0)
	err := flockUnlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}

// ReadInfo returns what the holder wrote into the lock file.
func ReadInfo(path string) (*Info, error) {
	// #nosec G304 - path is derived from the configured source
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("lock file is empty")
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse lock file: %w", err)
	}
	return &info, nil
}
