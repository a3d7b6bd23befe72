// Package lock implements timed acquisition of an exclusive advisory file lock.
//
// A lock is polled in small ticks until a wait budget runs out. When the
// budget is spent the caller can be asked whether to keep waiting, and for
// how long, through an Asker.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xcawolfe-amzn/hiscore/internal/clock"
	"github.com/xcawolfe-amzn/hiscore/internal/logging"
)

// DefaultTick is the polling interval while waiting for a lock.
const DefaultTick = 50 * time.Millisecond

// BusyTitle is the title of the "keep waiting?" question.
const BusyTitle = "File Busy Notification"

// BudgetQuestion asks for a new wait budget after the user chose to continue.
const BudgetQuestion = "Keep waiting for how many milliseconds?"

// ErrInterrupted is returned when a wait is cancelled through its context.
var ErrInterrupted = errors.New("lock wait interrupted")

// Lockable is anything with a non-blocking exclusive try-lock.
// *File and *flock.Flock satisfy it.
type Lockable interface {
	TryLock() (bool, error)
}

// Asker is the part of the prompting collaborator the acquirer needs.
type Asker interface {
	AskYesNo(ctx context.Context, message, title string) (bool, error)
	// AskText returns ok=false when the user dismissed the question.
	AskText(ctx context.Context, message string) (text string, ok bool, err error)
}

// Options controls one acquisition.
type Options struct {
	// Timeout is the wait budget. Zero or less checks the lock once.
	Timeout time.Duration
	// Query asks whether to keep waiting once the budget is spent.
	Query bool
	// Prompt is appended to the "file busy" question.
	Prompt string
	// ResetBudget asks for a new budget after the user chose to continue.
	ResetBudget bool
	// Tick overrides DefaultTick.
	Tick time.Duration
}

// Acquirer polls Lockables. The zero value is not usable; use NewAcquirer.
type Acquirer struct {
	clock clock.Clock
	asker Asker
	log   *logging.Logger
}

// NewAcquirer creates an Acquirer. A nil clock means the real clock, a nil
// asker declines every question and a nil logger discards output.
func NewAcquirer(c clock.Clock, asker Asker, log *logging.Logger) *Acquirer {
	if c == nil {
		c = clock.Real{}
	}
	return &Acquirer{clock: c, asker: asker, log: logging.OrNop(log)}
}

// Acquire tries to take l within opts.Timeout. It returns false with a nil
// error when the lock is still held by someone else and the caller should
// decide what to do next. Errors from the lock itself are returned wrapped;
// a cancelled ctx returns ErrInterrupted.
func (a *Acquirer) Acquire(ctx context.Context, l Lockable, opts Options) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, interrupted(err)
	}
	if ok, err := tryLock(l); ok || err != nil {
		return ok, err
	}
	if opts.Timeout <= 0 {
		return false, nil
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultTick
	}

	wait := opts.Timeout
	for {
		ticks := int(wait/tick) + 1
		for i := 0; i < ticks; i++ {
			select {
			case <-ctx.Done():
				return false, interrupted(ctx.Err())
			case <-a.clock.After(tick):
			}
			if err := ctx.Err(); err != nil {
				return false, interrupted(err)
			}
			if ok, err := tryLock(l); ok || err != nil {
				return ok, err
			}
		}
		a.log.Debug("lock wait budget spent", "wait_ms", wait.Milliseconds(), "ticks", ticks)

		if !opts.Query || a.asker == nil {
			return false, nil
		}
		question := strings.TrimSpace(fmt.Sprintf("File busy for %s. %s", FormatWait(wait), opts.Prompt))
		yes, err := a.asker.AskYesNo(ctx, question, BusyTitle)
		if err != nil {
			return false, err
		}
		if !yes {
			return false, nil
		}
		if opts.ResetBudget {
			wait, err = a.askBudget(ctx, wait)
			if err != nil {
				return false, err
			}
		}
	}
}

// askBudget asks for a new budget in milliseconds. Anything that is not an
// integer keeps the previous budget; negative values become zero.
func (a *Acquirer) askBudget(ctx context.Context, previous time.Duration) (time.Duration, error) {
	text, ok, err := a.asker.AskText(ctx, BudgetQuestion)
	if err != nil {
		return previous, err
	}
	if !ok {
		return previous, nil
	}
	ms, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		a.log.Debug("ignoring wait budget input", "input", text)
		return previous, nil
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// FormatWait renders a wait budget the way the busy question shows it:
// whole seconds above two seconds, milliseconds otherwise.
func FormatWait(d time.Duration) string {
	ms := d.Milliseconds()
	if ms > 2000 {
		return fmt.Sprintf("%d seconds", ms/1000)
	}
	return fmt.Sprintf("%d milliseconds", ms)
}

// IsInterrupted reports whether err came from a cancelled wait or prompt.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func interrupted(cause error) error {
	return fmt.Errorf("%w: %w", ErrInterrupted, cause)
}

func tryLock(l Lockable) (bool, error) {
	ok, err := l.TryLock()
	if err != nil {
		return false, fmt.Errorf("trying lock: %w", err)
	}
	return ok, nil
}
