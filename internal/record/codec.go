package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Column layout of one line:
//
//	0-29   name, left-justified, padded to 30 bytes, not trimmed on read
//	30     ','
//	31-39  score, right-justified in 9 columns
//	40     ','
//	41-    date as YYYY-MM-DD, surrounding blanks ignored on read
const (
	NameWidth  = 30
	ScoreWidth = 9
	DateLayout = "2006-01-02"

	scoreStart = NameWidth + 1
	scoreEnd   = scoreStart + ScoreWidth
	dateStart  = scoreEnd + 1

	// MinLineLength is the shortest line DecodeLine will look at. Shorter
	// lines are rejected before any field is parsed.
	MinLineLength = 48

	// MaxScore is the largest score the score column can hold.
	MaxScore = 999999999
	minScore = -99999999
)

// ErrFormat is returned for any line that does not match the layout.
var ErrFormat = errors.New("malformed record")

// DecodeLine parses a single line. The name keeps its padding.
func DecodeLine(line string) (Record, error) {
	if len(line) < MinLineLength {
		return Record{}, fmt.Errorf("%w: line length %d is below %d: %q", ErrFormat, len(line), MinLineLength, line)
	}

	name := line[:NameWidth]
	scoreText := strings.TrimSpace(line[scoreStart:scoreEnd])
	score, err := strconv.Atoi(scoreText)
	if err != nil {
		return Record{}, fmt.Errorf("%w: score %q is not a number", ErrFormat, scoreText)
	}

	dateText := strings.TrimSpace(line[dateStart:])
	date, err := time.Parse(DateLayout, dateText)
	if err != nil {
		return Record{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrFormat, dateText)
	}

	return Record{Name: name, Score: score, Date: date}, nil
}

// EncodeLine formats r without a line terminator. Scores that do not fit the
// score column are rejected by EncodeAll, not here.
func EncodeLine(r Record) string {
	return fmt.Sprintf("%s,%*d,%s", fitName(r.Name), ScoreWidth, r.Score, r.Date.Format(DateLayout))
}

// DecodeAll reads records until EOF. The first malformed line fails the whole
// read; no partial set is returned.
func DecodeAll(r io.Reader) (Set, error) {
	set := Set{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		rec, err := DecodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		set = append(set, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return set, nil
}

// EncodeAll writes one line per record, each terminated by '\n'.
func EncodeAll(s Set, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, r := range s {
		if r.Score > MaxScore || r.Score < minScore {
			return fmt.Errorf("%w: score %d does not fit %d columns", ErrFormat, r.Score, ScoreWidth)
		}
		if _, err := bw.WriteString(EncodeLine(r)); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing records: %w", err)
	}
	return nil
}

// fitName normalizes name and returns it truncated or padded to exactly
// NameWidth bytes. Truncation never splits a multi-byte rune.
func fitName(name string) string {
	name = norm.NFC.String(name)
	if len(name) > NameWidth {
		cut := NameWidth
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	return name + strings.Repeat(" ", NameWidth-len(name))
}
