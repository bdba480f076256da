package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watcher keeps the in-memory index in sync with external edits to the
// vault directory. Every picked-up change bumps the vault generation, which
// invalidates derived caches (backlink index, semantic path cache).
type watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching the vault tree for changes. It is a no-op if a
// watcher is already running. Close stops it.
func (v *Vault) Watch() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.watcher != nil {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := addDirsRecursive(fsw, v.root); err != nil {
		fsw.Close()
		return err
	}

	w := &watcher{fsw: fsw, done: make(chan struct{})}
	v.watcher = w
	go v.watchLoop(w)
	return nil
}

// Close stops the watcher, if running.
func (v *Vault) Close() error {
	v.mu.Lock()
	w := v.watcher
	v.watcher = nil
	v.mu.Unlock()
	if w == nil {
		return nil
	}
	err := w.fsw.Close()
	<-w.done
	return err
}

func (v *Vault) watchLoop(w *watcher) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			v.handleEvent(w, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			v.log.Warn("vault watcher error", zap.Error(err))
		}
	}
}

func (v *Vault) handleEvent(w *watcher, event fsnotify.Event) {
	rel, err := filepath.Rel(v.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(filepath.Base(event.Name), ".") || strings.HasSuffix(rel, ".tmp") {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// New folders need their own watch for nested notes.
			if err := addDirsRecursive(w.fsw, event.Name); err != nil {
				v.log.Warn("watch new folder", zap.String("path", rel), zap.Error(err))
			}
			return
		}
	}
	if !strings.EqualFold(filepath.Ext(rel), ".md") {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		v.log.Debug("note removed", zap.String("path", rel))
		v.forget(rel)
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		data, err := os.ReadFile(event.Name)
		if err != nil {
			return
		}
		v.log.Debug("note changed", zap.String("path", rel))
		v.index(rel, string(data))
	}
}

func addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}
