// Package record defines the score table entries and the fixed-width text
// format they are stored in.
//
// A Set is always kept sorted by descending score and truncated to a maximum
// number of entries. Entries with equal scores keep their relative order, so
// an older entry stays ahead of a newer one with the same score.
package record

import (
	"slices"
	"time"
)

// DefaultMaxRecords is the number of entries a table retains.
const DefaultMaxRecords = 5

// Record is one table entry. Values are never mutated after creation.
type Record struct {
	Name  string
	Score int
	Date  time.Time
}

// New creates a Record dated on the calendar day of date.
func New(name string, score int, date time.Time) Record {
	return Record{Name: name, Score: score, Date: Day(date)}
}

// Day truncates t to midnight UTC of its calendar day, dropping the clock
// part so records compare equal after a round trip through the file.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Set is an ordered slice of records, highest score first.
type Set []Record

// Clone returns a copy of s that shares no backing array with it.
func (s Set) Clone() Set {
	if s == nil {
		return Set{}
	}
	return slices.Clone(s)
}

// Full reports whether s already holds n entries.
func (s Set) Full(n int) bool {
	return len(s) >= n
}

// Lowest returns the last (lowest scoring) entry. ok is false for an empty set.
func (s Set) Lowest() (r Record, ok bool) {
	if len(s) == 0 {
		return Record{}, false
	}
	return s[len(s)-1], true
}

// Scores returns the scores of s in order.
func (s Set) Scores() []int {
	scores := make([]int, len(s))
	for i, r := range s {
		scores[i] = r.Score
	}
	return scores
}

// Sorted reports whether s is ordered by descending score.
func (s Set) Sorted() bool {
	return slices.IsSortedFunc(s, compareScore)
}

// Normalize returns a sorted copy of s truncated to n entries.
// A non-positive n means DefaultMaxRecords.
func Normalize(s Set, n int) Set {
	if n <= 0 {
		n = DefaultMaxRecords
	}
	out := s.Clone()
	slices.SortStableFunc(out, compareScore)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Insert returns a new set with r added, sorted and truncated to n entries.
// r is appended before sorting, so it ranks after existing entries with the
// same score and is the one evicted when the set is full of equal scores.
func Insert(s Set, r Record, n int) Set {
	out := make(Set, 0, len(s)+1)
	out = append(out, s...)
	out = append(out, r)
	return Normalize(out, n)
}

// Qualifies reports whether score would enter a set of at most n entries.
func Qualifies(s Set, score, n int) bool {
	if n <= 0 {
		n = DefaultMaxRecords
	}
	if !s.Full(n) {
		return true
	}
	return score > s[n-1].Score
}

func compareScore(a, b Record) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	default:
		return 0
	}
}
