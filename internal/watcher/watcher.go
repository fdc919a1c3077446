// Package watcher provides file system watching for re-running an analysis
// when its configuration or log sources change.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher monitors files, directory trees and glob bases and calls onChange
// once a burst of events has settled.
// A file target is watched through its parent directory since fsnotify cannot
// watch a path that is removed and recreated.
type Watcher struct {
	files    map[string]bool // file targets, matched by exact path
	roots    []string        // directory trees, matched by prefix
	ignore   map[string]bool
	onChange func()
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// New creates a Watcher for paths. Each path is a file, a directory watched
// recursively, or a glob pattern whose static base directory is watched.
// Events on ignored paths, such as the report being written, never trigger
// onChange. Watches are established before New returns.
func New(paths, ignore []string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		files:    make(map[string]bool),
		ignore:   make(map[string]bool, len(ignore)),
		onChange: onChange,
		watcher:  fsw,
		debounce: defaultDebounce,
	}
	for _, p := range ignore {
		w.ignore[clean(p)] = true
	}
	for _, p := range paths {
		w.add(p)
	}

	return w, nil
}

func (w *Watcher) add(path string) {
	if strings.ContainsAny(path, "*?[{") {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(path))
		path = filepath.FromSlash(base)
	}
	path = clean(path)

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		w.roots = append(w.roots, path)
		w.addTree(path)
	default:
		// Missing targets are watched through their parent so that creating
		// them later is noticed.
		w.files[path] = true
		parent := filepath.Dir(path)
		if err := w.watcher.Add(parent); err != nil {
			log.Warn().Err(err).Str("path", parent).Msg("Failed to add watch")
		}
	}
}

// addTree watches dir and every directory below it, best effort.
func (w *Watcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil //nolint:nilerr // unwatchable entries are skipped
		}
		if err := w.watcher.Add(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to add watch")
		}
		return nil
	})
}

// Run processes events until ctx is done, then releases the underlying
// fsnotify watcher. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Change detected")

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if w.onChange != nil {
				w.onChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	path := clean(event.Name)
	if w.ignore[path] {
		return false
	}
	if w.files[path] {
		return true
	}

	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		// New subdirectories must be watched before files appear in them.
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.addTree(path)
			}
		}
		return true
	}
	return false
}

func clean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
