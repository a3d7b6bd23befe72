//go:build !windows

package lock

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// tryLockFile takes a non-blocking exclusive flock on f. It reports false
// when another open file description holds the lock.
func tryLockFile(f *os.File) (bool, error) {
	err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, syscall.EWOULDBLOCK):
		return false, nil
	default:
		return false, fmt.Errorf("acquiring flock: %w", err)
	}
}

// unlockFile releases the flock on f. The caller closes f afterwards.
func unlockFile(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		return fmt.Errorf("releasing flock: %w", err)
	}
	return nil
}
