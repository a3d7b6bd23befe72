package record

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertRetention(t *testing.T) {
	var set Set
	for _, score := range []int{100, 50, 200, 10, 300, 150} {
		set = Insert(set, New("p", score, date(2024, 1, 1)), DefaultMaxRecords)
		require.LessOrEqual(t, len(set), DefaultMaxRecords)
		require.True(t, set.Sorted(), "set not sorted: %v", set.Scores())
	}
	assert.Equal(t, []int{300, 200, 150, 100, 50}, set.Scores())
}

func TestInsertRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 1; n <= 6; n++ {
		var set Set
		for i := 0; i < 200; i++ {
			set = Insert(set, New("p", rng.Intn(50), date(2024, 1, 1)), n)
			if len(set) > n {
				t.Fatalf("n=%d: length %d exceeds limit", n, len(set))
			}
			if !set.Sorted() {
				t.Fatalf("n=%d: not sorted: %v", n, set.Scores())
			}
		}
	}
}

func TestInsertKeepsTieOrder(t *testing.T) {
	set := Set{
		New("first", 10, date(2024, 1, 1)),
		New("second", 10, date(2024, 1, 1)),
	}
	set = Insert(set, New("third", 10, date(2024, 1, 1)), 3)
	names := []string{set[0].Name, set[1].Name, set[2].Name}
	assert.Equal(t, []string{"first", "second", "third"}, names)

	// A full table of equal scores evicts the newcomer.
	set = Insert(set, New("fourth", 10, date(2024, 1, 1)), 3)
	assert.Equal(t, "third", set[2].Name)
}

func TestInsertDoesNotMutateInput(t *testing.T) {
	orig := Set{New("a", 1, date(2024, 1, 1)), New("b", 3, date(2024, 1, 1))}
	snapshot := orig.Clone()

	_ = Insert(orig, New("c", 2, date(2024, 1, 1)), 2)
	assert.Equal(t, snapshot, orig)
}

func TestNormalizeDefaultLimit(t *testing.T) {
	var set Set
	for i := 0; i < 10; i++ {
		set = append(set, New("p", i, date(2024, 1, 1)))
	}
	got := Normalize(set, 0)
	assert.Equal(t, []int{9, 8, 7, 6, 5}, got.Scores())
}

func TestQualifies(t *testing.T) {
	set := Set{
		New("a", 50, date(2024, 1, 1)),
		New("b", 40, date(2024, 1, 1)),
	}
	assert.True(t, Qualifies(set, 1, 3), "a table with room accepts any score")
	assert.True(t, Qualifies(set, 41, 2))
	assert.False(t, Qualifies(set, 40, 2), "equal to the lowest does not qualify")
	assert.False(t, Qualifies(set, 5, 2))
}

func TestLowest(t *testing.T) {
	_, ok := Set{}.Lowest()
	assert.False(t, ok)

	low, ok := Set{New("a", 5, date(2024, 1, 1)), New("b", 1, date(2024, 1, 1))}.Lowest()
	require.True(t, ok)
	assert.Equal(t, 1, low.Score)
}

func TestDayDropsClock(t *testing.T) {
	r := New("a", 1, date(2024, 5, 6).Add(13*time.Hour))
	assert.Equal(t, date(2024, 5, 6), r.Date)
}
