//go:build windows

package lock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// lockLength is the locked range, one byte at offset 0 as gofrs/flock
// locks, so File and NewPathLock contend with each other. The owning handle
// may still read and write the whole file.
const lockLength = 1

// tryLockFile takes a non-blocking exclusive LockFileEx lock on f. It
// reports false when another handle holds the lock.
func tryLockFile(f *os.File) (bool, error) {
	err := windows.LockFileEx(windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, lockLength, 0, &windows.Overlapped{})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, windows.ERROR_LOCK_VIOLATION):
		return false, nil
	default:
		return false, fmt.Errorf("acquiring file lock: %w", err)
	}
}

// unlockFile releases the lock on f. The caller closes f afterwards.
func unlockFile(f *os.File) error {
	err := windows.UnlockFileEx(windows.Handle(f.Fd()), 0, lockLength, 0, &windows.Overlapped{})
	if err != nil {
		return fmt.Errorf("releasing file lock: %w", err)
	}
	return nil
}
