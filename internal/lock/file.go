package lock

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gofrs/flock"
)

// File is an exclusive advisory lock taken on the score file's own handle.
// The handle returned by File is the one the lock covers, so everything read
// and written through it happens under the lock. The file is opened
// read-write and never created.
type File struct {
	path string

	mu     sync.Mutex
	f      *os.File
	locked bool
}

// NewFileLock returns an unlocked File for path.
func NewFileLock(path string) *File {
	return &File{path: path}
}

// Path returns the locked file's path.
func (l *File) Path() string { return l.path }

// TryLock opens the file and tries to lock it without blocking. It returns
// false when another handle holds the lock. A missing file is an error
// wrapping fs.ErrNotExist.
func (l *File) TryLock() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locked {
		return true, nil
	}
	f, err := os.OpenFile(l.path, os.O_RDWR, 0) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return false, err
	}
	ok, err := tryLockFile(f)
	if err != nil || !ok {
		_ = f.Close()
		return false, err
	}
	l.f, l.locked = f, true
	return true, nil
}

// File returns the locked handle, or nil when not locked.
func (l *File) File() *os.File {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.locked {
		return nil
	}
	return l.f
}

// Unlock releases the lock, then closes the handle. Unlocking an unlocked
// File does nothing.
func (l *File) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.locked {
		return nil
	}
	f := l.f
	l.f, l.locked = nil, false

	unlockErr := unlockFile(f)
	if err := f.Close(); err != nil {
		return errors.Join(unlockErr, fmt.Errorf("closing %s: %w", l.path, err))
	}
	return unlockErr
}

// NewPathLock returns a gofrs flock on path that opens the file read-write
// and never creates it. It contends with File on the same path but gives no
// access to the file's contents; use it to hold the lock without touching
// the data.
func NewPathLock(path string) *flock.Flock {
	return flock.New(path, flock.SetFlag(os.O_RDWR))
}
