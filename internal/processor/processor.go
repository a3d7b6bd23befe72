// Package processor adds scores to the table, using the score file when it
// can and a local in-memory table when it cannot.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/xcawolfe-amzn/hiscore/internal/clock"
	"github.com/xcawolfe-amzn/hiscore/internal/display"
	"github.com/xcawolfe-amzn/hiscore/internal/lock"
	"github.com/xcawolfe-amzn/hiscore/internal/logging"
	"github.com/xcawolfe-amzn/hiscore/internal/prompt"
	"github.com/xcawolfe-amzn/hiscore/internal/record"
	"github.com/xcawolfe-amzn/hiscore/internal/store"
)

// Table titles.
const (
	TitleFile  = "High Scores from File"
	TitleLocal = "High Scores (Local Copy)"
)

// Reasons for skipping the file entirely.
const (
	ReasonUncertain  store.Reason = "never attempted: uncertain whether the file can be read and written"
	ReasonUnwritable store.Reason = "file can't be read and written"
)

// Prompts shown to the player.
const (
	LockPrompt = "Continue waiting to permanently save your high score to a file? " +
		"(Otherwise it will be saved only while this program runs.)"
	NamePrompt       = "Please enter your name."
	NamePromptLocked = "Please enter your name. (This process currently has a lock on the file.)"
	ScorePrompt      = "Enter a score, or 0 to exit. (The file is locked once a score is entered.)"
)

// DefaultLock is the lock behaviour for interactive probes and transactions.
var DefaultLock = lock.Options{Timeout: 10 * time.Second, Query: true, Prompt: LockPrompt}

// DefaultSeed returns the table written when no score file exists.
func DefaultSeed() record.Set {
	return record.Set{
		record.New("Scott Safran", 41336440, time.Date(1982, 11, 13, 0, 0, 0, 0, time.UTC)),
		record.New("John Doe", 35000, time.Date(1979, 11, 1, 0, 0, 0, 0, time.UTC)),
		record.New("Player One", 2500, time.Date(2017, 8, 2, 0, 0, 0, 0, time.UTC)),
	}
}

// Store is the part of *store.Store the processor uses.
type Store interface {
	Load() (record.Set, error)
	Seed(record.Set) error
	Probe(ctx context.Context, opts lock.Options) error
	Transact(ctx context.Context, opts lock.Options, merge store.MergeFunc) (store.Outcome, error)
	History() store.FailureHistory
	Unsure() bool
	Path() string
}

// Options configures a Processor.
type Options struct {
	MaxRecords int
	// ProbeLock is used when writability is still unknown before a new entry.
	ProbeLock lock.Options
	// TransactLock is used for the transaction itself.
	TransactLock lock.Options
	// NameUnderLock asks for the player's name while the file is locked.
	NameUnderLock bool
	// Seed is written when the file does not exist and used when it cannot
	// be read. Nil disables seeding.
	Seed   record.Set
	Clock  clock.Clock
	Logger *logging.Logger
	// Attempts numbers AddEntry calls for the log. Owned by the caller.
	Attempts *atomic.Int64
}

// DisplayResult is what AddEntry showed.
type DisplayResult struct {
	Records record.Set
	Title   string
	Reason  store.Reason
}

// Local reports whether the result came from the local table.
func (r DisplayResult) Local() bool { return r.Title == TitleLocal }

// Processor owns the in-memory table. It is not safe for concurrent use.
type Processor struct {
	store    Store
	prompter prompt.Prompter
	display  display.Display
	opts     Options
	clock    clock.Clock
	log      *logging.Logger

	records record.Set
}

// New creates a Processor. Call Open before adding entries.
func New(s Store, p prompt.Prompter, d display.Display, opts Options) *Processor {
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = record.DefaultMaxRecords
	}
	if opts.Attempts == nil {
		opts.Attempts = new(atomic.Int64)
	}
	c := opts.Clock
	if c == nil {
		c = clock.Real{}
	}
	return &Processor{
		store:    s,
		prompter: p,
		display:  d,
		opts:     opts,
		clock:    c,
		log:      logging.OrNop(opts.Logger),
	}
}

// Open loads the initial table, seeds a missing file and probes it once
// without waiting.
func (p *Processor) Open(ctx context.Context) error {
	set, err := p.store.Load()
	switch {
	case err == nil:
		p.records = set
	case errors.Is(err, fs.ErrNotExist) && p.opts.Seed != nil:
		p.records = record.Normalize(p.opts.Seed.Clone(), p.opts.MaxRecords)
		if err := p.store.Seed(p.records); err != nil {
			p.log.Warn("seeding scores file", "path", p.store.Path(), "error", err)
		}
	default:
		p.log.Warn("loading scores file", "path", p.store.Path(), "error", err)
		p.records = record.Normalize(p.opts.Seed.Clone(), p.opts.MaxRecords)
	}
	return p.store.Probe(ctx, lock.Options{})
}

// Records returns a copy of the in-memory table.
func (p *Processor) Records() record.Set {
	return p.records.Clone()
}

// Qualifies reports whether score would enter the current table.
func (p *Processor) Qualifies(score int) bool {
	return record.Qualifies(p.records, score, p.opts.MaxRecords)
}

// Show displays the table, rereading the file when it is known to work.
func (p *Processor) Show(ctx context.Context) DisplayResult {
	title := TitleLocal
	if p.store.History().CanReadWrite {
		if set, err := p.store.Load(); err == nil {
			p.records = set
			title = TitleFile
		} else {
			p.log.Warn("rereading scores file", "error", err)
		}
	}
	p.display.ShowRecords(p.records.Clone(), title, "")
	return DisplayResult{Records: p.records.Clone(), Title: title}
}

// AddEntry records score in the file if possible and in the local table
// otherwise, then displays the table. The only error returned is an
// interruption, after which no further entries should be added.
func (p *Processor) AddEntry(ctx context.Context, score int) (DisplayResult, error) {
	attempt := p.opts.Attempts.Add(1)
	log := p.log.With("attempt", attempt, "score", score)

	if p.store.Unsure() {
		if err := p.store.Probe(ctx, p.opts.ProbeLock); err != nil {
			return DisplayResult{}, err
		}
	}

	var name string
	reason := store.ReasonNone
	switch history := p.store.History(); {
	case p.store.Unsure():
		reason = ReasonUncertain
	case !history.CanReadWrite:
		reason = ReasonUnwritable
	default:
		if !p.opts.NameUnderLock {
			var err error
			if name, err = p.prompter.AskName(ctx, score, NamePrompt); err != nil {
				return DisplayResult{}, err
			}
		}
		out, err := p.store.Transact(ctx, p.opts.TransactLock, func(current record.Set) (record.Set, error) {
			if name == "" {
				var err error
				if name, err = p.prompter.AskName(ctx, score, NamePromptLocked); err != nil {
					return nil, err
				}
			}
			return record.Insert(current, p.newRecord(name, score), p.opts.MaxRecords), nil
		})
		if err != nil {
			return DisplayResult{}, err
		}
		if out.Committed {
			p.records = out.Records
			log.Info("score saved to file", "records", len(out.Records))
			return p.show(TitleFile, store.ReasonNone), nil
		}
		reason = out.Reason
	}

	if name == "" {
		var err error
		if name, err = p.prompter.AskName(ctx, score, localNamePrompt(reason)); err != nil {
			return DisplayResult{}, err
		}
	}
	p.records = record.Insert(p.records, p.newRecord(name, score), p.opts.MaxRecords)
	log.Info("score kept locally", "reason", string(reason))
	return p.show(TitleLocal, reason), nil
}

func (p *Processor) newRecord(name string, score int) record.Record {
	return record.New(name, score, p.clock.Now())
}

func (p *Processor) show(title string, reason store.Reason) DisplayResult {
	message := ""
	if reason != store.ReasonNone {
		message = fmt.Sprintf("Could not save the new score to the file: %s.", reason)
	}
	p.display.ShowRecords(p.records.Clone(), title, message)
	return DisplayResult{Records: p.records.Clone(), Title: title, Reason: reason}
}

func localNamePrompt(reason store.Reason) string {
	return fmt.Sprintf("Please enter your name. (Recorded locally only: %s.)", reason)
}
