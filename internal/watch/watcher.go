package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes of a single file.
// The parent directory is watched so that replace-by-rename, as done by most
// training loops when they save checkpoints, is seen as a change too.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context)
	changes  atomic.Uint32
	wg       sync.WaitGroup
}

// NewWatcher creates a new file watcher. onChange runs on its own goroutine after
// events have been quiet for debounce; calls never overlap.
func NewWatcher(path string, debounce time.Duration, onChange func(ctx context.Context)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch: failed to watch %s: %w", dir, err)
	}

	slog.Info("Watching model artifact", "path", w.path, "debounce", w.debounce)

	ctx, cancel := context.WithCancel(ctx)
	trigger := make(chan struct{}, 1)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				count := w.changes.Add(1)
				slog.Info("Model artifact changed", "path", w.path, "count", count)
				w.onChange(ctx)
			}
		}
	}()
	defer func() {
		cancel()
		w.wg.Wait()
	}()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}

			slog.Error("Watcher error", "error", err)
		}
	}
}

// ChangeCount returns the number of debounced changes handled so far.
func (w *Watcher) ChangeCount() uint32 {
	return w.changes.Load()
}
