// Package prompt asks the player questions: whether to keep waiting for a
// busy score file, how long to wait, what name to record and which score to
// enter.
//
// Three implementations exist. Terminal runs a small bubbletea program per
// question, Line reads plain lines (used when stdin is not a terminal) and
// Scripted answers from queues for tests.
package prompt

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/xcawolfe-amzn/hiscore/internal/lock"
	"github.com/xcawolfe-amzn/hiscore/internal/record"
)

// DeclinedName is recorded when the player gives no name.
const DeclinedName = "---"

// NamePlaceholder is shown in an empty name field.
const NamePlaceholder = "Your name"

// DefaultScore is offered when asking for a score.
const DefaultScore = "5200"

// Prompter is the prompting collaborator used by the lock acquirer and the
// score processor.
type Prompter interface {
	lock.Asker
	// AskName never returns an empty name; DeclinedName stands in when the
	// player declines.
	AskName(ctx context.Context, score int, prompt string) (string, error)
	// AskScore returns 0 when the player declines, which ends an
	// interactive session.
	AskScore(ctx context.Context, prompt string) (int, error)
}

// New picks Terminal when in and out are terminals and Line otherwise.
func New(in *os.File, out *os.File, plain bool) Prompter {
	if !plain && term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd())) {
		return NewTerminal(in, out)
	}
	return NewLine(in, out)
}

// NameTitle is the title shown above the name question.
func NameTitle(score int) string {
	return fmt.Sprintf("New high score of %d achieved!", score)
}

// normalizeName maps blank or dismissed answers to DeclinedName.
func normalizeName(name string, ok bool) string {
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return DeclinedName
	}
	return name
}

// parseScore turns free text into a score. Unparsable, negative or
// too-large input becomes 0.
func parseScore(text string, ok bool) int {
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 || n > record.MaxScore {
		return 0
	}
	return n
}

// interrupted wraps context.Canceled so lock.IsInterrupted recognises a
// question the player aborted with ctrl-c.
func interrupted(what string) error {
	return fmt.Errorf("%s: %w", what, context.Canceled)
}

func writeLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...) //nolint:errcheck // best-effort terminal output
}
