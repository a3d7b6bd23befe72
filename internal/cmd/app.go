package cmd

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xcawolfe-amzn/hiscore/internal/config"
	"github.com/xcawolfe-amzn/hiscore/internal/display"
	"github.com/xcawolfe-amzn/hiscore/internal/lock"
	"github.com/xcawolfe-amzn/hiscore/internal/logging"
	"github.com/xcawolfe-amzn/hiscore/internal/processor"
	"github.com/xcawolfe-amzn/hiscore/internal/prompt"
	"github.com/xcawolfe-amzn/hiscore/internal/record"
	"github.com/xcawolfe-amzn/hiscore/internal/store"
)

// app wires one command run: configuration, log, prompter, display,
// store and processor.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	prompter prompt.Prompter
	display  *display.Terminal
	store    *store.Store
	proc     *processor.Processor
	out      io.Writer
}

// attempts numbers AddEntry calls across the process for the log.
var attempts atomic.Int64

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logging.NewLogger(cfg.LogDir(), cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	log = log.WithRun(uuid.NewString()).With("command", cmd.Name())

	out := cmd.OutOrStdout()
	plain := cfg.Display.Plain || !isTerminal(out)
	p := newPrompter(cmd.InOrStdin(), out, plain)
	d := display.NewTerminal(out, cfg.Store.MaxFailures, plain)

	acquirer := lock.NewAcquirer(nil, p, log)
	st := store.New(cfg.StorePath(), store.Options{
		MaxRecords:  cfg.Store.MaxRecords,
		MaxFailures: cfg.Store.MaxFailures,
		Acquirer:    acquirer,
		Notifier:    d,
		Logger:      log,
	})

	var seed record.Set
	if cfg.Store.Seed {
		seed = processor.DefaultSeed()
	}
	proc := processor.New(st, p, d, processor.Options{
		MaxRecords:    cfg.Store.MaxRecords,
		ProbeLock:     cfg.ProbeLock(processor.LockPrompt),
		TransactLock:  cfg.TransactLock(processor.LockPrompt),
		NameUnderLock: cfg.Lock.NameUnderLock,
		Seed:          seed,
		Logger:        log,
		Attempts:      &attempts,
	})

	log.Debug("configured", "store", cfg.StorePath(), "plain", plain)
	return &app{cfg: cfg, log: log, prompter: p, display: d, store: st, proc: proc, out: out}, nil
}

func (a *app) Close() error {
	return a.log.Close()
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...) //nolint:errcheck // terminal output
}

// newPrompter uses the bubbletea prompter only on a real terminal.
func newPrompter(in io.Reader, out io.Writer, plain bool) prompt.Prompter {
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if inOK && outOK {
		return prompt.New(inFile, outFile, plain)
	}
	return prompt.NewLine(in, out)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
