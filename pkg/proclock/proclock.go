// Package proclock provides the advisory singleton lock that keeps two
// crawler processes from driving the same browser session.
package proclock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock is an exclusive advisory file lock held for the process lifetime
type Lock struct {
	fl   *flock.Flock
	path string
}

// New creates a Lock backed by the given lock file path
func New(path string) *Lock {
	return &Lock{
		fl:   flock.New(path),
		path: path,
	}
}

// Path returns the lock file location
func (l *Lock) Path() string {
	return l.path
}

// Acquire tries to take the lock without blocking. It returns false when
// another process already holds it.
func (l *Lock) Acquire() (bool, error) {
	held, err := l.fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire process lock: %w", err)
	}
	return held, nil
}

// Release drops the lock
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
