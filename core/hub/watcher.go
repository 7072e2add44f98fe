package hub

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mudler/xlog"

	"github.com/OminiX-ai/ominix-hub/core/catalog"
)

// Watcher triggers reconciler rescans when model storage directories are
// changed from outside the process (a manual delete, an external tool
// writing files). Best effort: a watcher failure degrades to
// startup-scan-only behavior.
type Watcher struct {
	service *Service
	watcher *fsnotify.Watcher
	roots   map[string]string // watched dir -> model id
}

// NewWatcher builds a watcher over the storage parents of every model in
// the catalog.
func NewWatcher(service *Service, cat *catalog.Catalog) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		service: service,
		watcher: fsw,
		roots:   map[string]string{},
	}
	for _, m := range cat.Models {
		path := m.Storage.ExpandedPath()
		if path == "" {
			continue
		}
		// Watch the parent so creation and removal of the model directory
		// itself is seen.
		parent := filepath.Dir(path)
		if _, err := os.Stat(parent); err != nil {
			continue
		}
		if err := fsw.Add(parent); err != nil {
			xlog.Debug("unable to watch storage root", "path", parent, "error", err)
			continue
		}
		w.roots[path] = m.ID
	}
	return w, nil
}

// Start consumes events until Close is called.
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create | fsnotify.Remove | fsnotify.Rename | fsnotify.Write) {
					w.dispatch(event.Name)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				xlog.Debug("storage watcher error", "error", err)
			}
		}
	}()
}

func (w *Watcher) dispatch(changed string) {
	for path, id := range w.roots {
		if changed == path || filepath.Dir(changed) == path {
			// Skip rescans while a session is writing the directory itself.
			if sess := w.service.Session(id); sess != nil && sess.Active() {
				continue
			}
			xlog.Debug("storage change detected, rescanning", "model", id, "path", changed)
			w.service.Rescan(id)
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
