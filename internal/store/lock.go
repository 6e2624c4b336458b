package store

import (
	"os"

	"github.com/gofrs/flock"

	"github.com/semantiq-dev/semantiq/internal/errors"
)

// WriterLock is the cross-process advisory lock guaranteeing only one
// semantiq process writes to a given database at a time, adapted from the
// teacher's download-lock pattern: same flock-based Lock/TryLock/Unlock
// shape, here guarding the database file instead of a model download.
type WriterLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewWriterLock returns the writer lock for the database at dbPath. Pass
// ":memory:" for an in-memory database to get a no-op lock.
func NewWriterLock(dbPath string) *WriterLock {
	path := lockFilePath(dbPath)
	if path == "" {
		return &WriterLock{}
	}
	return &WriterLock{path: path, flock: flock.New(path)}
}

// Lock acquires the lock, blocking until it is available.
func (l *WriterLock) Lock() error {
	if l.flock == nil {
		return nil
	}
	if err := l.flock.Lock(); err != nil {
		return errors.Wrap(errors.ErrCodeLockUnavailable, err)
	}
	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking.
func (l *WriterLock) TryLock() (bool, error) {
	if l.flock == nil {
		return true, nil
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeLockUnavailable, err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call more than once.
func (l *WriterLock) Unlock() error {
	if l.flock == nil || !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return errors.Wrap(errors.ErrCodeLockPoisoned, err)
	}
	l.locked = false
	return nil
}

// Path returns the lock file path, or "" for a no-op in-memory lock.
func (l *WriterLock) Path() string {
	return l.path
}

// IsLocked reports whether this process currently holds the lock.
func (l *WriterLock) IsLocked() bool {
	return l.locked
}

// Remove deletes a stale lock file left behind by a crashed process. Only
// safe to call when the caller has independently verified no other
// process holds it (e.g. via a failed TryLock followed by a liveness
// check on the owning pid, left to the caller).
func (l *WriterLock) Remove() error {
	if l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFilePermission, err)
	}
	return nil
}
