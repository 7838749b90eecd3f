package shellcache

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Worker serves one release of the app shell from its versioned cache.
type Worker struct {
	manifest Manifest
	paths    map[string]bool
	storage  CacheStorage
	fetcher  Fetcher
	metrics  cacheMetrics

	mu    sync.Mutex
	state State
}

// NewWorker creates a worker for m. It does nothing until Install.
func NewWorker(m Manifest, storage CacheStorage, fetcher Fetcher, metrics cacheMetrics) *Worker {
	paths := make(map[string]bool)
	for _, p := range m.PrecachePaths() {
		paths[p] = true
	}
	return &Worker{
		manifest: m,
		paths:    paths,
		storage:  storage,
		fetcher:  fetcher,
		metrics:  metrics,
		state:    StateInstalling,
	}
}

func (w *Worker) Version() string   { return w.manifest.Version }
func (w *Worker) CacheName() string { return w.manifest.CacheName() }

func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}

// Install precaches every manifest path. On failure the worker becomes
// redundant and its cache is removed.
func (w *Worker) Install(ctx context.Context) error {
	name := w.CacheName()
	log.Info("Installing app shell", "version", w.Version(), "cache", name)

	cache, err := w.storage.Open(ctx, name)
	if err == nil {
		err = cache.AddAll(ctx, w.manifest.PrecachePaths(), w.fetcher)
	}
	if err != nil {
		log.Error("App shell installation failed", "version", w.Version(), "error", err)
		w.setState(StateRedundant)
		if _, derr := w.storage.Delete(ctx, name); derr != nil {
			log.Warn("Failed to remove cache of failed install", "cache", name, "error", derr)
		}
		return fmt.Errorf("install %s: %w", name, err)
	}

	w.setState(StateWaiting)
	log.Info("Finished installing app shell", "version", w.Version())
	return nil
}

// Activate deletes every older cache of this app and marks the worker live.
// Caches of other apps are left alone.
func (w *Worker) Activate(ctx context.Context) error {
	w.setState(StateActivating)
	log.Info("Activating app shell", "version", w.Version())

	keys, err := w.storage.Keys(ctx)
	if err != nil {
		return fmt.Errorf("activate %s: %w", w.CacheName(), err)
	}
	for _, key := range keys {
		if !w.manifest.ownsCache(key) || key == w.CacheName() {
			continue
		}
		log.Info("Deleting old cache", "cache", key)
		if _, err := w.storage.Delete(ctx, key); err != nil {
			return fmt.Errorf("activate %s: %w", w.CacheName(), err)
		}
	}

	w.setState(StateActivated)
	log.Info("Activated app shell", "version", w.Version())
	return nil
}

// Handles reports whether path is part of the precache manifest.
func (w *Worker) Handles(path string) bool {
	return w.paths[path]
}

// Fetch serves a manifest path cache-first. On a miss it goes to the network
// and stores the response only if it is OK.
func (w *Worker) Fetch(ctx context.Context, path string) (Response, error) {
	cache, err := w.storage.Open(ctx, w.CacheName())
	if err != nil {
		return Response{}, err
	}

	if cached, ok, err := cache.Match(ctx, path); err != nil {
		log.Warn("Cache lookup failed, using network", "path", path, "error", err)
	} else if ok {
		w.metrics.IncShellCache("hit")
		return cached, nil
	}

	w.metrics.IncShellCache("miss")
	resp, err := w.fetcher.Fetch(ctx, path)
	if err != nil {
		log.Error("Fetch failed", "path", path, "error", err)
		return Response{}, err
	}
	if resp.OK() {
		stored := Response{Status: resp.Status, Header: resp.Header.Clone(), Body: append([]byte(nil), resp.Body...)}
		if err := cache.Put(ctx, path, stored); err != nil {
			log.Warn("Failed to cache response", "path", path, "error", err)
		}
	}
	return resp, nil
}
