package prompt

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Line asks questions as plain text lines. End of input declines. It is
// not safe for concurrent use.
type Line struct {
	in  *bufio.Reader
	out io.Writer

	// pending is a read still running after an interrupted question. The
	// next question takes its line instead of starting a second read.
	pending chan lineResult
}

type lineResult struct {
	text string
	err  error
}

// NewLine creates a Line prompter reading from in and writing to out.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

// AskYesNo accepts "y" or "yes" in any case as yes.
func (l *Line) AskYesNo(ctx context.Context, message, title string) (bool, error) {
	if title != "" {
		writeLine(l.out, "%s", title)
	}
	text, ok, err := l.ask(ctx, message+" [y/n]: ")
	if err != nil || !ok {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// AskText returns the next line without its terminator.
func (l *Line) AskText(ctx context.Context, message string) (string, bool, error) {
	return l.ask(ctx, message+" ")
}

// AskName asks for the name to record with score.
func (l *Line) AskName(ctx context.Context, score int, prompt string) (string, error) {
	writeLine(l.out, "%s", NameTitle(score))
	text, ok, err := l.ask(ctx, prompt+" ")
	if err != nil {
		return "", err
	}
	return normalizeName(text, ok), nil
}

// AskScore asks for a score. A blank line takes DefaultScore.
func (l *Line) AskScore(ctx context.Context, prompt string) (int, error) {
	text, ok, err := l.ask(ctx, prompt+" ["+DefaultScore+"]: ")
	if err != nil {
		return 0, err
	}
	if ok && strings.TrimSpace(text) == "" {
		text = DefaultScore
	}
	return parseScore(text, ok), nil
}

// ask prints question and reads one line. ok is false at end of input.
// Cancelling ctx returns an interruption without waiting for the line.
func (l *Line) ask(ctx context.Context, question string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, interrupted("line prompt")
	}
	if _, err := io.WriteString(l.out, question); err != nil {
		return "", false, err
	}

	if l.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			text, err := l.in.ReadString('\n')
			ch <- lineResult{text: text, err: err}
		}()
		l.pending = ch
	}

	var res lineResult
	select {
	case <-ctx.Done():
		return "", false, interrupted("line prompt")
	case res = <-l.pending:
		l.pending = nil
	}

	switch {
	case res.err == nil, res.err == io.EOF && res.text != "":
		return strings.TrimRight(res.text, "\r\n"), true, nil
	case res.err == io.EOF:
		return "", false, nil
	default:
		return "", false, res.err
	}
}
