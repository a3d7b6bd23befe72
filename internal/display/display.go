// Package display renders score tables and notices for the player.
package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xcawolfe-amzn/hiscore/internal/record"
	"github.com/xcawolfe-amzn/hiscore/internal/style"
)

// Display shows results to the player.
type Display interface {
	ShowRecords(records record.Set, title, message string)
	ShowFailureNotice(failures int, reason string)
	ShowMessage(title, message string)
}

// Intro is the welcome text printed by the interactive loop.
const Intro = `Welcome to the score table lock demonstration.

To see file locks in action, start two copies of this program at once,
pointing at the same score file, for example in two terminals.
Use "hiscore hold 30s" in one of them to keep the file busy.

The program needs to read and write the score file to fully function.
New scores are added properly whether or not the file is locked, or even
when it is inaccessible: they are then kept in a local table.`

// FirstFailureNotice explains the first failed attempt to use the file.
func FirstFailureNotice(reason string) string {
	return "It appears the score file cannot be read and written.\n" +
		"Scores will still be recorded, but only in a local table while this program runs.\n" +
		"The file could not be used because of: " + reason
}

// GiveUpNotice is shown once failures reaches the limit.
func GiveUpNotice(maxFailures int) string {
	return fmt.Sprintf("Could not read and write the score file after %d tries.\n"+
		"Giving up on saving scores to the file; all scores are kept locally only.", maxFailures)
}

// Terminal writes styled tables and notices to a writer.
type Terminal struct {
	out         io.Writer
	maxFailures int
	plain       bool
}

// NewTerminal creates a Terminal writing to out. maxFailures selects the
// failure count that triggers GiveUpNotice.
func NewTerminal(out io.Writer, maxFailures int, plain bool) *Terminal {
	return &Terminal{out: out, maxFailures: maxFailures, plain: plain}
}

// ShowRecords prints the table with title above it and message below.
func (t *Terminal) ShowRecords(records record.Set, title, message string) {
	t.write(RenderTable(records, title, t.plain))
	if message != "" {
		t.write(t.render(style.Warning, message) + "\n")
	}
}

// ShowFailureNotice prints the notice matching failures.
func (t *Terminal) ShowFailureNotice(failures int, reason string) {
	var parts []string
	if failures == 1 {
		parts = append(parts, FirstFailureNotice(reason))
	}
	if failures == t.maxFailures {
		parts = append(parts, GiveUpNotice(t.maxFailures))
	}
	if len(parts) == 0 {
		return
	}
	t.ShowMessage("Score file unavailable", strings.Join(parts, "\n\n"))
}

// ShowMessage prints a boxed message.
func (t *Terminal) ShowMessage(title, message string) {
	body := message
	if title != "" {
		body = t.render(style.Bold, title) + "\n\n" + message
	}
	if t.plain {
		t.write(body + "\n")
		return
	}
	t.write(style.Box.Render(body) + "\n")
}

func (t *Terminal) render(s interface{ Render(...string) string }, text string) string {
	if t.plain {
		return text
	}
	return s.Render(text)
}

func (t *Terminal) write(s string) {
	io.WriteString(t.out, s) //nolint:errcheck // terminal output
}

// RenderTable renders records as a ranked table.
func RenderTable(records record.Set, title string, plain bool) string {
	tbl := style.NewTable(
		style.Column{Name: "#", Width: 2, Align: style.AlignRight},
		style.Column{Name: "Name", Width: record.NameWidth},
		style.Column{Name: "Score", Width: record.ScoreWidth, Align: style.AlignRight, Style: style.Info},
		style.Column{Name: "Date", Width: len(record.DateLayout)},
	).SetTitle(title).SetPlain(plain)
	for i, r := range records {
		tbl.AddRow(strconv.Itoa(i+1), strings.TrimRight(r.Name, " "), strconv.Itoa(r.Score), r.Date.Format(record.DateLayout))
	}
	if tbl.Len() == 0 {
		tbl.AddRow("", "(no scores yet)")
	}
	return tbl.Render()
}
