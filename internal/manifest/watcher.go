package manifest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher rebuilds the manifest whenever files below Root change.
type Watcher struct {
	opts     Options
	debounce time.Duration
	watcher  *fsnotify.Watcher
	// rebuilt receives the result of every rebuild. Used by tests.
	rebuilt func(Manifest, error)
}

func NewWatcher(opts Options) (*Watcher, error) {
	if err := checkRoot(opts.Root); err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		opts:     opts,
		debounce: defaultDebounce,
		watcher:  fsWatcher,
	}, nil
}

// Run rebuilds once and then after every burst of changes until ctx is done.
// Failed rebuilds are logged and do not stop watching.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		_ = w.watcher.Close()
	}()

	if err := w.addDirs(w.opts.Root); err != nil {
		return err
	}
	w.rebuild()

	manifestPath := w.opts.path()
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.ignore(event.Name, manifestPath) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirs(event.Name); err != nil {
						slog.Warn("watch", "dir", event.Name, "err", err)
					}
				}
			}
			slog.Debug("change", "event", event.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			w.rebuild()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch", "err", err)
		}
	}
}

func (w *Watcher) rebuild() {
	m, err := Rebuild(w.opts)
	if err != nil {
		slog.Error("rebuild failed", "err", err)
	}
	if w.rebuilt != nil {
		w.rebuilt(m, err)
	}
}

// ignore skips the manifest itself including its temporary files.
func (w *Watcher) ignore(name, manifestPath string) bool {
	if name == manifestPath {
		return true
	}
	return strings.HasPrefix(filepath.Base(name), "."+filepath.Base(manifestPath)+"-")
}

// addDirs watches dir and every visible directory below it.
func (w *Watcher) addDirs(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}
