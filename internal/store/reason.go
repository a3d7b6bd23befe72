package store

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"syscall"

	"github.com/xcawolfe-amzn/hiscore/internal/record"
)

// Reason says why the score file could not be used.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonLocked        Reason = "locked"
	ReasonAlreadyLocked Reason = "already locked"
	ReasonLockLost      Reason = "lock lost during close"
	ReasonNotFound      Reason = "file not found"
	ReasonIO            Reason = "IO failure"
	ReasonFormat        Reason = "format/decode failure"
	ReasonUnclassified  Reason = "unclassified failure"
)

var (
	// ErrAlreadyLocked is returned when a transaction is already running on
	// the same Store.
	ErrAlreadyLocked = errors.New("score file already locked by this process")

	// ErrLockLost is returned when releasing the lock fails after the
	// file was written.
	ErrLockLost = errors.New("lock lost during close")
)

// Classify maps an error from a probe or transaction to a Reason.
func Classify(err error) Reason {
	var pathErr *fs.PathError
	var errno syscall.Errno
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrAlreadyLocked):
		return ReasonAlreadyLocked
	case errors.Is(err, ErrLockLost), errors.Is(err, os.ErrClosed):
		return ReasonLockLost
	case errors.Is(err, fs.ErrNotExist):
		return ReasonNotFound
	case errors.Is(err, record.ErrFormat):
		return ReasonFormat
	case errors.As(err, &pathErr), errors.As(err, &errno), errors.Is(err, io.ErrShortWrite):
		return ReasonIO
	default:
		return ReasonUnclassified
	}
}
