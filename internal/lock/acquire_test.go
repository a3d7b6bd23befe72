package lock

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xcawolfe-amzn/hiscore/internal/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeLock becomes free after freeAfter failed tries. A negative freeAfter
// never frees.
type fakeLock struct {
	freeAfter int
	tries     int
	err       error
}

func (f *fakeLock) TryLock() (bool, error) {
	f.tries++
	if f.err != nil {
		return false, f.err
	}
	return f.freeAfter >= 0 && f.tries > f.freeAfter, nil
}

type question struct {
	message string
	title   string
}

// fakeAsker answers from queues and records the questions it saw.
type fakeAsker struct {
	yes       []bool
	texts     []string
	dismiss   bool
	err       error
	questions []question
	textAsked int
}

func (f *fakeAsker) AskYesNo(_ context.Context, message, title string) (bool, error) {
	f.questions = append(f.questions, question{message, title})
	if f.err != nil {
		return false, f.err
	}
	if len(f.yes) == 0 {
		return false, nil
	}
	answer := f.yes[0]
	f.yes = f.yes[1:]
	return answer, nil
}

func (f *fakeAsker) AskText(context.Context, string) (string, bool, error) {
	f.textAsked++
	if f.dismiss {
		return "", false, nil
	}
	if len(f.texts) == 0 {
		return "", true, nil
	}
	answer := f.texts[0]
	f.texts = f.texts[1:]
	return answer, true, nil
}

// stuckClock never fires, so only context cancellation ends a wait.
type stuckClock struct{}

func (stuckClock) Now() time.Time { return epoch }

func (stuckClock) After(time.Duration) <-chan time.Time { return nil }

func TestAcquireImmediate(t *testing.T) {
	vc := clock.NewVirtual(epoch)
	a := NewAcquirer(vc, nil, nil)
	l := &fakeLock{freeAfter: 0}

	ok, err := a.Acquire(context.Background(), l, Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !ok {
		t.Fatal("expected lock on first try")
	}
	if vc.Waits() != 0 {
		t.Errorf("expected no waiting, got %d ticks", vc.Waits())
	}
}

func TestAcquireZeroTimeoutChecksOnce(t *testing.T) {
	vc := clock.NewVirtual(epoch)
	asker := &fakeAsker{yes: []bool{true}}
	a := NewAcquirer(vc, asker, nil)
	l := &fakeLock{freeAfter: -1}

	ok, err := a.Acquire(context.Background(), l, Options{Timeout: 0, Query: true})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if ok {
		t.Fatal("expected contended lock to fail")
	}
	if l.tries != 1 {
		t.Errorf("expected exactly one try, got %d", l.tries)
	}
	if vc.Waits() != 0 {
		t.Errorf("zero timeout must not sleep, got %d ticks", vc.Waits())
	}
	if len(asker.questions) != 0 {
		t.Errorf("zero timeout must not query, asked %v", asker.questions)
	}
}

func TestAcquireZeroTimeoutRealClock(t *testing.T) {
	a := NewAcquirer(nil, nil, nil)
	start := time.Now()
	ok, err := a.Acquire(context.Background(), &fakeLock{freeAfter: -1}, Options{})
	if err != nil || ok {
		t.Fatalf("Acquire = %v, %v; want false, nil", ok, err)
	}
	if elapsed := time.Since(start); elapsed >= DefaultTick {
		t.Errorf("zero timeout took %v, want less than one tick", elapsed)
	}
}

func TestAcquireTimeoutBounds(t *testing.T) {
	for _, timeout := range []time.Duration{
		10 * time.Millisecond,
		50 * time.Millisecond,
		999 * time.Millisecond,
		1000 * time.Millisecond,
		1020 * time.Millisecond,
		10 * time.Second,
	} {
		vc := clock.NewVirtual(epoch)
		a := NewAcquirer(vc, nil, nil)

		ok, err := a.Acquire(context.Background(), &fakeLock{freeAfter: -1}, Options{Timeout: timeout})
		if err != nil || ok {
			t.Fatalf("timeout %v: Acquire = %v, %v; want false, nil", timeout, ok, err)
		}
		elapsed := vc.Since(epoch)
		if elapsed < timeout || elapsed > timeout+DefaultTick {
			t.Errorf("timeout %v: gave up after %v, want within [%v, %v]",
				timeout, elapsed, timeout, timeout+DefaultTick)
		}
	}
}

func TestAcquireSucceedsWhileWaiting(t *testing.T) {
	vc := clock.NewVirtual(epoch)
	a := NewAcquirer(vc, nil, nil)
	l := &fakeLock{freeAfter: 4}

	ok, err := a.Acquire(context.Background(), l, Options{Timeout: time.Second})
	if err != nil || !ok {
		t.Fatalf("Acquire = %v, %v; want true, nil", ok, err)
	}
	if vc.Waits() != 4 {
		t.Errorf("expected 4 ticks before the fifth try, got %d", vc.Waits())
	}
}

func TestAcquireQueryDeclined(t *testing.T) {
	vc := clock.NewVirtual(epoch)
	asker := &fakeAsker{yes: []bool{false}}
	a := NewAcquirer(vc, asker, nil)

	ok, err := a.Acquire(context.Background(), &fakeLock{freeAfter: -1}, Options{
		Timeout: time.Second,
		Query:   true,
		Prompt:  "Keep waiting?",
	})
	if err != nil || ok {
		t.Fatalf("Acquire = %v, %v; want false, nil", ok, err)
	}
	if len(asker.questions) != 1 {
		t.Fatalf("expected one question, got %d", len(asker.questions))
	}
	q := asker.questions[0]
	if q.message != "File busy for 1000 milliseconds. Keep waiting?" {
		t.Errorf("message = %q", q.message)
	}
	if q.title != BusyTitle {
		t.Errorf("title = %q", q.title)
	}
	if asker.textAsked != 0 {
		t.Error("budget must not be asked when ResetBudget is false")
	}
}

func TestAcquireQueryContinuesWithSameBudget(t *testing.T) {
	vc := clock.NewVirtual(epoch)
	asker := &fakeAsker{yes: []bool{true, true, false}}
	a := NewAcquirer(vc, asker, nil)

	ok, err := a.Acquire(context.Background(), &fakeLock{freeAfter: -1}, Options{
		Timeout: 100 * time.Millisecond,
		Query:   true,
	})
	if err != nil || ok {
		t.Fatalf("Acquire = %v, %v; want false, nil", ok, err)
	}
	if len(asker.questions) != 3 {
		t.Errorf("expected three questions, got %d", len(asker.questions))
	}
	if vc.Waits() != 3*3 {
		t.Errorf("expected three rounds of 3 ticks, got %d", vc.Waits())
	}
}

func TestAcquireQueryThenLockFrees(t *testing.T) {
	vc := clock.NewVirtual(epoch)
	asker := &fakeAsker{yes: []bool{true}}
	a := NewAcquirer(vc, asker, nil)
	l := &fakeLock{freeAfter: 5}

	ok, err := a.Acquire(context.Background(), l, Options{Timeout: 100 * time.Millisecond, Query: true})
	if err != nil || !ok {
		t.Fatalf("Acquire = %v, %v; want true, nil", ok, err)
	}
	if len(asker.questions) != 1 {
		t.Errorf("expected one question, got %d", len(asker.questions))
	}
}

func TestAcquireResetBudget(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		dismiss     bool
		secondTicks int
	}{
		{name: "new budget", text: "200", secondTicks: 5},
		{name: "unparsable keeps previous", text: "soon", secondTicks: 21},
		{name: "negative clamps to zero", text: "-300", secondTicks: 1},
		{name: "blank keeps previous", text: "  ", secondTicks: 21},
		{name: "dismissed keeps previous", dismiss: true, secondTicks: 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vc := clock.NewVirtual(epoch)
			asker := &fakeAsker{yes: []bool{true, false}, texts: []string{tt.text}, dismiss: tt.dismiss}
			a := NewAcquirer(vc, asker, nil)

			ok, err := a.Acquire(context.Background(), &fakeLock{freeAfter: -1}, Options{
				Timeout:     time.Second,
				Query:       true,
				ResetBudget: true,
			})
			if err != nil || ok {
				t.Fatalf("Acquire = %v, %v; want false, nil", ok, err)
			}
			if asker.textAsked != 1 {
				t.Errorf("expected one budget question, got %d", asker.textAsked)
			}
			if got := vc.Waits() - 21; got != tt.secondTicks {
				t.Errorf("second round ticks = %d, want %d", got, tt.secondTicks)
			}
			if len(asker.questions) == 2 && tt.secondTicks == 5 {
				if want := "File busy for 200 milliseconds."; asker.questions[1].message != want {
					t.Errorf("second question = %q, want %q", asker.questions[1].message, want)
				}
			}
		})
	}
}

func TestAcquireLockError(t *testing.T) {
	boom := errors.New("device gone")
	a := NewAcquirer(clock.NewVirtual(epoch), nil, nil)

	_, err := a.Acquire(context.Background(), &fakeLock{err: boom}, Options{Timeout: time.Second})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped lock error, got %v", err)
	}
	if IsInterrupted(err) {
		t.Error("a lock error is not an interruption")
	}
}

func TestAcquireAskerError(t *testing.T) {
	boom := errors.New("no terminal")
	asker := &fakeAsker{err: boom}
	a := NewAcquirer(clock.NewVirtual(epoch), asker, nil)

	_, err := a.Acquire(context.Background(), &fakeLock{freeAfter: -1}, Options{Timeout: 10 * time.Millisecond, Query: true})
	if !errors.Is(err, boom) {
		t.Fatalf("expected asker error, got %v", err)
	}
}

func TestAcquireInterrupted(t *testing.T) {
	a := NewAcquirer(stuckClock{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := a.Acquire(ctx, &fakeLock{freeAfter: -1}, Options{Timeout: time.Hour})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) {
			t.Fatalf("expected ErrInterrupted, got %v", err)
		}
		if !IsInterrupted(err) {
			t.Error("IsInterrupted should recognise the error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}

func TestFormatWait(t *testing.T) {
	tests := map[time.Duration]string{
		0:                       "0 milliseconds",
		500 * time.Millisecond:  "500 milliseconds",
		2000 * time.Millisecond: "2000 milliseconds",
		2001 * time.Millisecond: "2 seconds",
		10 * time.Second:        "10 seconds",
	}
	for d, want := range tests {
		if got := FormatWait(d); got != want {
			t.Errorf("FormatWait(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestFileLockContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	holder := NewFileLock(path)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("holder TryLock = %v, %v", locked, err)
	}

	a := NewAcquirer(nil, nil, nil)
	contender := NewFileLock(path)

	start := time.Now()
	ok, err := a.Acquire(context.Background(), contender, Options{Timeout: 100 * time.Millisecond, Tick: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if ok {
		t.Fatal("contender acquired a lock that is held")
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("gave up after %v, before the budget", elapsed)
	}

	if err := holder.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	ok, err = a.Acquire(context.Background(), contender, Options{})
	if err != nil || !ok {
		t.Fatalf("Acquire after release = %v, %v", ok, err)
	}
	_ = contender.Unlock()
}

func TestFileLockMissingFile(t *testing.T) {
	a := NewAcquirer(nil, nil, nil)
	l := NewFileLock(filepath.Join(t.TempDir(), "missing.txt"))

	_, err := a.Acquire(context.Background(), l, Options{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, statErr := os.Stat(l.Path()); !os.IsNotExist(statErr) {
		t.Error("NewFileLock must not create the file")
	}
}

func TestFileLockHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewFileLock(path)
	if l.File() != nil {
		t.Fatal("File() before TryLock should be nil")
	}
	if ok, err := l.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	f := l.File()
	if f == nil {
		t.Fatal("File() while locked is nil")
	}
	if _, err := f.WriteAt([]byte("new"), 0); err != nil {
		t.Fatalf("writing through the locked handle: %v", err)
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if l.File() != nil {
		t.Error("File() after Unlock should be nil")
	}
	if _, err := f.Write([]byte("x")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("handle should be closed after Unlock, write err = %v", err)
	}
	if err := l.Unlock(); err != nil {
		t.Errorf("second Unlock: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("file = %q, want %q", data, "new")
	}
}

func TestPathLockContendsWithFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	held := NewPathLock(path)
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("path lock TryLock = %v, %v", ok, err)
	}
	data := NewFileLock(path)
	if ok, err := data.TryLock(); err != nil || ok {
		t.Fatalf("file lock TryLock while path lock held = %v, %v", ok, err)
	}
	if data.File() != nil {
		t.Error("a failed TryLock must not keep a handle")
	}
	if err := held.Unlock(); err != nil {
		t.Fatal(err)
	}

	if ok, err := data.TryLock(); err != nil || !ok {
		t.Fatalf("file lock TryLock after release = %v, %v", ok, err)
	}
	if ok, err := NewPathLock(path).TryLock(); err != nil || ok {
		t.Fatalf("path lock TryLock while file lock held = %v, %v", ok, err)
	}
	if err := data.Unlock(); err != nil {
		t.Fatal(err)
	}
}
