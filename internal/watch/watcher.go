// Package watch reruns a callback when any of a set of files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is how long the watcher waits for further changes before it
// fires.
const DefaultDelay = 100 * time.Millisecond

// Func handles a batch of changed files.
type Func func(ctx context.Context, files []string) error

// Watcher monitors files and calls a Func with the files that changed,
// debounced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	delay    time.Duration
	log      *zap.Logger
	onChange Func
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// New watches files. The parent directories are watched rather than the files
// themselves so that editors replacing a file by rename are seen.
func New(files []string, onChange Func, opts ...Option) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("watch: no files to watch")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]struct{}, len(files)),
		delay:    DefaultDelay,
		log:      zap.NewNop(),
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}
	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch: %w", err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		w.log.Debug("watching directory", zap.String("dir", dir))
	}
	return w, nil
}

// Run processes events until ctx is done. Errors returned by the callback are
// logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		pending = make(map[string]struct{})
		timer   = time.NewTimer(w.delay)
	)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := w.files[name]; !ok {
				continue
			}
			w.log.Debug("file changed", zap.String("file", name), zap.Stringer("op", event.Op))
			pending[name] = struct{}{}
			timer.Reset(w.delay)

		case <-timer.C:
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			clear(pending)
			slices.Sort(files)
			if err := w.onChange(ctx, files); err != nil {
				w.log.Error("error handling file changes", zap.Strings("files", files), zap.Error(err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}
