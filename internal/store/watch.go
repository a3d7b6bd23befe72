package store

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Subscription delivers a signal whenever the score file changes. Bursts
// of changes collapse into one pending signal.
type Subscription struct {
	watcher *fsnotify.Watcher
	name    string
	events  chan struct{}
	errs    chan error
	stop    chan struct{}
	once    sync.Once
}

// Watch subscribes to changes of the score file. The directory is watched
// so the file may be replaced or created after the subscription starts.
func (s *Store) Watch() (*Subscription, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating scores watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	sub := &Subscription{
		watcher: watcher,
		name:    filepath.Clean(s.path),
		events:  make(chan struct{}, 1),
		errs:    make(chan error, 1),
		stop:    make(chan struct{}),
	}
	go sub.run()
	return sub, nil
}

// Events returns the change signals. It is closed by Close.
func (w *Subscription) Events() <-chan struct{} {
	return w.events
}

// Errors returns watcher errors. Only the latest unread error is kept.
func (w *Subscription) Errors() <-chan error {
	return w.errs
}

// Close stops the subscription.
func (w *Subscription) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
	})
	return err
}

func (w *Subscription) run() {
	defer close(w.events)
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				w.signal()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *Subscription) signal() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}
