package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/heal-ops/heal/internal/logging"
)

// Event represents a change to a log file matching the watch pattern.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher discovers log files under a directory and reports changes to
// them using OS-level notifications.
type Watcher struct {
	fsw     *fsnotify.Watcher
	Events  chan Event
	dir     string
	pattern string
}

// New creates a Watcher for files under dir matching pattern, e.g. "*.csv"
// or "**/*.csv". Every directory under dir is watched so new files are seen.
func New(dir, pattern string) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid log pattern %q", pattern)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		Events:  make(chan Event, 256),
		dir:     abs,
		pattern: pattern,
	}

	err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				logging.Get().Warn("cannot watch directory", "path", path, "err", err)
			}
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Discover lists the files currently matching the pattern, sorted by path.
func (w *Watcher) Discover() ([]string, error) {
	return Discover(w.dir, w.pattern)
}

// Discover lists files under dir matching pattern, sorted by path.
func Discover(dir, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	sort.Strings(out)
	return out, nil
}

// Start begins listening for file events. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Get().Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	// New sub-directories are watched as they appear.
	if ev.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.fsw.Add(ev.Name)
			return
		}
	}

	if !w.matches(ev.Name) {
		return
	}

	switch {
	case ev.Op&fsnotify.Write != 0,
		ev.Op&fsnotify.Create != 0,
		ev.Op&fsnotify.Remove != 0,
		ev.Op&fsnotify.Rename != 0:
		select {
		case w.Events <- Event{Path: ev.Name, Op: ev.Op}:
		case <-ctx.Done():
		}
	}
}

func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return false
	}
	ok, _ := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	return ok
}
