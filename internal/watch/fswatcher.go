package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/postforge/internal/content"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/logfields"
)

// FSWatcher feeds file system notifications for the watched roots into a
// bounded event channel.
type FSWatcher struct {
	w       *fsnotify.Watcher
	out     chan<- Event
	roots   Roots
	exclude []string
	now     func() time.Time
}

// NewFSWatcher subscribes to every directory under the content, template
// and static roots plus the directory holding the configuration file.
// Paths under exclude (output and cache directories) never produce events.
// Failing to watch the content root is fatal; the other roots are optional.
func NewFSWatcher(roots Roots, exclude []string, out chan<- Event) (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WatchError("failed to create file watcher").WithCause(err).Build()
	}
	fw := &FSWatcher{w: w, out: out, now: time.Now}
	for _, p := range exclude {
		if p == "" {
			continue
		}
		if a, err := filepath.Abs(p); err == nil {
			fw.exclude = append(fw.exclude, a)
		}
	}
	fw.roots = NewClassifier(roots).roots

	if fi, err := os.Stat(fw.roots.Content); err != nil || !fi.IsDir() {
		_ = w.Close()
		if err == nil {
			err = os.ErrInvalid
		}
		return nil, errors.WatchError("content root cannot be watched").
			WithCause(err).
			WithContext("path", fw.roots.Content).
			Build()
	}
	if err := fw.addRecursive(fw.roots.Content); err != nil {
		_ = w.Close()
		return nil, errors.WatchError("content root cannot be watched").
			WithCause(err).
			WithContext("path", fw.roots.Content).
			Build()
	}
	for _, root := range []string{fw.roots.Templates, fw.roots.Static} {
		if root == "" {
			continue
		}
		if fi, err := os.Stat(root); err == nil && fi.IsDir() {
			if err := fw.addRecursive(root); err != nil {
				slog.Warn("Watch add failed", logfields.Path(root), logfields.Error(err))
			}
		}
	}
	if fw.roots.Config != "" {
		dir := filepath.Dir(fw.roots.Config)
		if err := w.Add(dir); err != nil {
			slog.Warn("Config directory not watched", logfields.Path(dir), logfields.Error(err))
		}
	}
	return fw, nil
}

// Run forwards notifications until ctx is canceled.
func (fw *FSWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			fw.handle(ev)
		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

// Close releases the underlying watcher.
func (fw *FSWatcher) Close() error { return fw.w.Close() }

func (fw *FSWatcher) handle(ev fsnotify.Event) {
	name := ev.Name
	if a, err := filepath.Abs(name); err == nil {
		name = a
	}
	if fw.excluded(name) || shouldIgnore(name) {
		return
	}
	// The config directory is watched non-recursively and only for the file.
	if !within(name, fw.roots.Content) && !within(name, fw.roots.Templates) &&
		!within(name, fw.roots.Static) && name != fw.roots.Config {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(name); err == nil && fi.IsDir() {
			_ = fw.addRecursive(name)
		}
	}
	e := Event{Path: name, Op: convertOp(ev.Op), At: fw.now()}
	select {
	case fw.out <- e:
	default:
		// A pending event already triggers a full rescan of the content root.
		slog.Debug("Event channel full, dropping", logfields.Path(name))
	}
}

func (fw *FSWatcher) excluded(p string) bool {
	for _, ex := range fw.exclude {
		if within(p, ex) {
			return true
		}
	}
	return false
}

func (fw *FSWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || fw.excluded(path)) {
			return filepath.SkipDir
		}
		if err := fw.w.Add(path); err != nil {
			if path == root {
				return err
			}
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore reports editor droppings and hidden files. Category
// descriptions are hidden files that still affect the site.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if base == content.CategoryFile {
		return false
	}
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}

func convertOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	if op.Has(fsnotify.Chmod) {
		out |= OpChmod
	}
	return out
}
