// Package clock abstracts the time source used while waiting for locks so the
// polling loop can be driven by a virtual clock in tests.
package clock

import (
	"sync"
	"time"
)

// Clock abstracts time-related functions for easier testing.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Real implements Clock using the standard library.
type Real struct{}

// Now returns the current UTC time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// After mirrors time.After while satisfying the Clock interface.
func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Virtual is a clock that jumps forward by d every time After(d) is called
// and fires immediately. Code that polls in ticks runs without real delays
// while Now still reports how much time the loop would have taken.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	waits int
}

// NewVirtual constructs a Virtual clock starting at the supplied time.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start.UTC()}
}

// Now returns the current virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// After advances the clock by d and returns an already-fired channel.
func (v *Virtual) After(d time.Duration) <-chan time.Time {
	if d < 0 {
		d = 0
	}
	v.mu.Lock()
	v.now = v.now.Add(d)
	v.waits++
	now := v.now
	v.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Waits returns the number of After calls made so far.
func (v *Virtual) Waits() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.waits
}

// Since returns the virtual time elapsed since start.
func (v *Virtual) Since(start time.Time) time.Duration {
	return v.Now().Sub(start)
}
