package shellcache

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher re-registers the app shell whenever its manifest file changes.
type Watcher struct {
	path      string
	container *Container
	watcher   *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewWatcher watches the directory holding manifestPath, since editors and
// build tools often replace the file rather than write it in place.
func NewWatcher(manifestPath string, container *Container) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, container: container, watcher: fw, done: make(chan struct{})}, nil
}

// Start processes events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case ev, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				w.reload(ctx)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Warn("Manifest watcher error", "error", err)
			}
		}
	}()
}

func (w *Watcher) reload(ctx context.Context) {
	m, err := LoadManifest(w.path)
	if err != nil {
		log.Warn("Ignoring unreadable manifest", "path", w.path, "error", err)
		return
	}
	log.Info("Manifest changed", "version", m.Version)
	if err := w.container.Register(ctx, m); err != nil {
		log.Error("Failed to register app shell", "version", m.Version, "error", err)
	}
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	select {
	case <-w.done:
		return nil
	default:
		close(w.done)
	}
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
