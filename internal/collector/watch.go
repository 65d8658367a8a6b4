package collector

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/paws/internal/log"
)

// DefaultDebounce is how long Watch waits for a burst of events to settle.
const DefaultDebounce = 300 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce time.Duration
	// Skip reports paths whose events are ignored, such as the bundle being
	// written.
	Skip func(path string) bool
	// OnChange runs on the watch goroutine after events settle.
	OnChange func()
	Log      *log.Logger
}

// Watch starts a recursive fsnotify watcher on roots and calls OnChange after
// each settled burst of write, create, remove or rename events until ctx is
// cancelled.
func Watch(ctx context.Context, roots []string, opts WatchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range roots {
		if err := addTree(watcher, root); err != nil {
			return err
		}
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if opts.Skip != nil && opts.Skip(event.Name) {
				continue
			}
			opts.Log.Debugf("change: %s", event)

			// If a new directory was created, watch it too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addTree(watcher, event.Name)
				}
			}
			timer.Reset(debounce)

		case <-timer.C:
			if opts.OnChange != nil {
				opts.OnChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
			opts.Log.Warnf("watch error: %v", err)
		}
	}
}

// addTree watches root and, if it is a directory, every directory below it.
func addTree(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
