// Package store reads and rewrites the score file under an exclusive
// advisory lock.
//
// Every change is a reread-merge-write transaction: the file is opened
// read-write, locked, decoded, merged with the caller's change, written back
// from offset zero and truncated, all before the lock is released. Failures
// are classified into a Reason and counted in a FailureHistory so callers can
// decide when to stop trying the file.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/xcawolfe-amzn/hiscore/internal/lock"
	"github.com/xcawolfe-amzn/hiscore/internal/logging"
	"github.com/xcawolfe-amzn/hiscore/internal/record"
)

// DefaultMaxFailures is how many failed attempts end the "unsure" state.
const DefaultMaxFailures = 2

// FailureHistory tracks whether the file has ever been usable.
type FailureHistory struct {
	// CanReadWrite is set once any full read-write has succeeded.
	CanReadWrite bool
	// Failures counts failed attempts, not counting contention.
	Failures int
}

// Unsure reports whether the file should still be tried before giving up.
func (h FailureHistory) Unsure(maxFailures int) bool {
	return !h.CanReadWrite && h.Failures < maxFailures
}

// Notifier is told about failed attempts. display.Display satisfies it.
type Notifier interface {
	ShowFailureNotice(failures int, reason string)
}

// MergeFunc computes the new record set from the one in the file.
type MergeFunc func(current record.Set) (record.Set, error)

// Outcome is the result of a transaction.
type Outcome struct {
	Committed bool
	// Records is the set written to the file when Committed.
	Records record.Set
	Reason  Reason
	Err     error
}

// FileLock is a lock whose handle is used to read and write the file.
// *lock.File satisfies it.
type FileLock interface {
	lock.Lockable
	File() *os.File
	Unlock() error
}

// Options configures a Store.
type Options struct {
	MaxRecords  int
	MaxFailures int
	Acquirer    *lock.Acquirer
	Notifier    Notifier
	Logger      *logging.Logger
}

// Store is one score file. It is owned by a single goroutine; concurrent
// transactions on the same Store fail with ReasonAlreadyLocked.
type Store struct {
	path        string
	maxRecords  int
	maxFailures int
	acquirer    *lock.Acquirer
	notifier    Notifier
	log         *logging.Logger

	history  FailureHistory
	inFlight atomic.Bool
	newLock  func(path string) FileLock
}

// New creates a Store for path.
func New(path string, opts Options) *Store {
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = record.DefaultMaxRecords
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = DefaultMaxFailures
	}
	if opts.Acquirer == nil {
		opts.Acquirer = lock.NewAcquirer(nil, nil, opts.Logger)
	}
	return &Store{
		path:        path,
		maxRecords:  opts.MaxRecords,
		maxFailures: opts.MaxFailures,
		acquirer:    opts.Acquirer,
		notifier:    opts.Notifier,
		log:         logging.OrNop(opts.Logger).WithStore(path),
		newLock:     func(path string) FileLock { return lock.NewFileLock(path) },
	}
}

// Path returns the score file path.
func (s *Store) Path() string { return s.path }

// MaxRecords returns the retention limit.
func (s *Store) MaxRecords() int { return s.maxRecords }

// History returns the failure history so far.
func (s *Store) History() FailureHistory { return s.history }

// Unsure reports whether the file has never worked but has not failed
// often enough to give up on.
func (s *Store) Unsure() bool { return s.history.Unsure(s.maxFailures) }

// Load reads the file without locking. The result is normalised.
func (s *Store) Load() (record.Set, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening scores file: %w", err)
	}
	defer f.Close()

	set, err := record.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return record.Normalize(set, s.maxRecords), nil
}

// Seed writes set to the file if the file does not exist yet. An existing
// file is left alone.
func (s *Store) Seed(set record.Set) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating scores dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating scores file: %w", err)
	}

	if err := record.EncodeAll(record.Normalize(set, s.maxRecords), f); err != nil {
		_ = f.Close()
		return fmt.Errorf("seeding %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("seeding %s: %w", s.path, err)
	}
	s.log.Info("seeded scores file", "records", len(set))
	return nil
}

// Probe checks that the file can be locked, read and written by rewriting
// its contents unchanged. Contention leaves the history untouched; other
// failures are counted. The only error returned is an interruption.
func (s *Store) Probe(ctx context.Context, opts lock.Options) error {
	out, err := s.transact(ctx, opts, func(current record.Set) (record.Set, error) {
		return current, nil
	})
	if err != nil {
		return err
	}
	s.log.Debug("probe finished", "committed", out.Committed, "reason", string(out.Reason))
	return nil
}

// Transact rereads the file under the lock, applies merge and writes the
// result back before releasing the lock. When Committed is false the file
// is unchanged and Reason says why. The returned error is non-nil only when
// the transaction was interrupted.
func (s *Store) Transact(ctx context.Context, opts lock.Options, merge MergeFunc) (Outcome, error) {
	out, err := s.transact(ctx, opts, merge)
	if err != nil {
		return out, err
	}
	if out.Committed {
		s.log.Info("transaction committed", "records", len(out.Records))
	} else {
		s.log.Warn("transaction not committed", "reason", string(out.Reason), "error", out.Err)
	}
	return out, nil
}

// WithLock acquires the file lock, runs fn, then releases the lock. It
// returns false when the lock could not be taken. fn gets no access to the
// file; transactions from this or other processes wait until it returns.
func (s *Store) WithLock(ctx context.Context, opts lock.Options, fn func(ctx context.Context) error) (bool, error) {
	fl := lock.NewPathLock(s.path)
	ok, err := s.acquirer.Acquire(ctx, fl, opts)
	if err != nil || !ok {
		return false, err
	}
	defer func() { _ = fl.Unlock() }()
	return true, fn(ctx)
}

func (s *Store) transact(ctx context.Context, opts lock.Options, merge MergeFunc) (Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return s.failed(fmt.Errorf("%s: %w", s.path, ErrAlreadyLocked)), nil
	}
	defer s.inFlight.Store(false)

	fl := s.newLock(s.path)
	ok, err := s.acquirer.Acquire(ctx, fl, opts)
	if err != nil {
		if lock.IsInterrupted(err) {
			return Outcome{}, err
		}
		return s.failed(fmt.Errorf("locking scores file: %w", err)), nil
	}
	if !ok {
		return Outcome{Reason: ReasonLocked}, nil
	}

	records, err := s.rewrite(fl.File(), merge)
	unlockErr := fl.Unlock()
	if err != nil {
		if lock.IsInterrupted(err) {
			return Outcome{}, err
		}
		return s.failed(err), nil
	}
	if unlockErr != nil {
		return s.failed(fmt.Errorf("%w: %w", ErrLockLost, unlockErr)), nil
	}

	s.history.CanReadWrite = true
	return Outcome{Committed: true, Records: records}, nil
}

// rewrite reads the set from f, merges and writes the result from offset
// zero. Nothing is written unless decode, merge and encode succeed. If the
// write itself fails the original bytes are put back; when that fails too
// (the disk is gone, say) the file may be left partly written.
func (s *Store) rewrite(f *os.File, merge MergeFunc) (record.Set, error) {
	if f == nil {
		return nil, fmt.Errorf("scores file handle: %w", os.ErrClosed)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking scores file: %w", err)
	}
	original, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	current, err := record.DecodeAll(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	next, err := merge(record.Normalize(current, s.maxRecords))
	if err != nil {
		return nil, err
	}
	next = record.Normalize(next, s.maxRecords)

	var buf bytes.Buffer
	if err := record.EncodeAll(next, &buf); err != nil {
		return nil, fmt.Errorf("encoding scores: %w", err)
	}

	if err := overwrite(f, buf.Bytes()); err != nil {
		if rerr := overwrite(f, original); rerr != nil {
			s.log.Error("restoring scores file", "error", rerr)
		}
		return nil, fmt.Errorf("writing %s: %w", s.path, err)
	}
	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("syncing %s: %w", s.path, err)
	}
	return next, nil
}

// overwrite replaces the contents of f with data.
func overwrite(f *os.File, data []byte) error {
	n, err := f.WriteAt(data, 0)
	if err != nil {
		return err
	}
	if n != len(data) {
		return io.ErrShortWrite
	}
	return f.Truncate(int64(len(data)))
}

// failed counts a non-contention failure and notifies on the first and the
// last counted failure.
func (s *Store) failed(err error) Outcome {
	reason := Classify(err)
	s.history.Failures++
	s.log.Warn("scores file failure", "reason", string(reason), "failures", s.history.Failures, "error", err)
	if s.notifier != nil && (s.history.Failures == 1 || s.history.Failures == s.maxFailures) {
		s.notifier.ShowFailureNotice(s.history.Failures, string(reason))
	}
	return Outcome{Reason: reason, Err: err}
}
