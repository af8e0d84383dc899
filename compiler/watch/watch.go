// Package watch reruns a build when the schema or config files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the quiet period after the last change before the build
// runs.
const DefaultDelay = 200 * time.Millisecond

type (
	// Func is called after a batch of changes.
	Func func(ctx context.Context) error

	// Option configures a Watcher.
	Option func(*Watcher)

	// Watcher calls a Func when one of the watched files is written,
	// created, renamed or removed. Changes closer than the delay are
	// batched into one call.
	Watcher struct {
		files  map[string]bool
		fn     Func
		delay  time.Duration
		log    *slog.Logger
		notify *fsnotify.Watcher
	}
)

// WithDelay sets the quiet period of the watcher.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// WithLogger sets the logger of the watcher.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

// New starts watching the given files. The directories holding them are
// watched, so that files replaced by editors are still tracked.
func New(files []string, fn Func, opts ...Option) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("watch: no files to watch")
	}
	w := &Watcher{
		files: make(map[string]bool, len(files)),
		fn:    fn,
		delay: DefaultDelay,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			notify.Close()
			return nil, fmt.Errorf("watch: %w", err)
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := notify.Add(dir); err != nil {
				notify.Close()
				return nil, fmt.Errorf("watch: add %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}
	w.notify = notify
	return w, nil
}

// Run dispatches the changes until ctx is done. Errors returned by the Func
// are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.notify.Close()
	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.notify.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("schema changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.delay)
		case err, ok := <-w.notify.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case <-timer.C:
			if err := w.fn(ctx); err != nil {
				w.log.Error("rebuild failed", "error", err)
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	return err == nil && w.files[abs]
}
