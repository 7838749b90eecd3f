package shellcache

import (
	"context"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
)

// NewContainer creates an empty registration. broadcaster may be nil.
func NewContainer(storage CacheStorage, fetcher Fetcher, metrics cacheMetrics, broadcaster Broadcaster) *Container {
	return &Container{
		storage:     storage,
		fetcher:     fetcher,
		metrics:     metrics,
		broadcaster: broadcaster,
	}
}

// Register installs a worker for m. The first worker activates at once; a
// later one waits until a page sends SKIP_WAITING, and pages are told an
// update is available. Registering the version already active or waiting is
// a no-op.
func (c *Container) Register(ctx context.Context, m Manifest) error {
	c.mu.Lock()
	if (c.active != nil && c.active.Version() == m.Version) ||
		(c.waiting != nil && c.waiting.Version() == m.Version) {
		c.mu.Unlock()
		log.Debug("App shell version already registered", "version", m.Version)
		return nil
	}
	c.mu.Unlock()

	w := NewWorker(m, c.storage, c.fetcher, c.metrics)
	if err := w.Install(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	if c.active == nil {
		c.active = w
		c.mu.Unlock()
		return w.Activate(ctx)
	}
	if c.waiting != nil {
		c.waiting.setState(StateRedundant)
	}
	c.waiting = w
	c.mu.Unlock()

	log.Info("App shell update available", "version", m.Version)
	c.broadcast(MsgUpdateAvailable)
	return nil
}

// HandleMessage processes a control message posted by a page.
func (c *Container) HandleMessage(ctx context.Context, msg string) error {
	log.Debug("Received worker message", "message", msg)
	switch msg {
	case MsgSkipWaiting:
		return c.SkipWaiting(ctx)
	default:
		log.Warn("Ignoring unknown worker message", "message", msg)
		return nil
	}
}

// SkipWaiting promotes the waiting worker, activates it, and tells every page
// to reload.
func (c *Container) SkipWaiting(ctx context.Context) error {
	c.mu.Lock()
	next := c.waiting
	if next == nil {
		c.mu.Unlock()
		log.Debug("No waiting app shell to promote")
		return nil
	}
	prev := c.active
	c.active = next
	c.waiting = nil
	c.mu.Unlock()

	if prev != nil {
		prev.setState(StateRedundant)
	}
	if err := next.Activate(ctx); err != nil {
		log.Error("Activation failed", "version", next.Version(), "error", err)
		return err
	}
	log.Info("Skipped waiting, claiming clients", "version", next.Version())
	c.broadcast(MsgUpdated)
	return nil
}

// Status reports the active and waiting versions.
func (c *Container) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s Status
	if c.active != nil {
		s.ActiveVersion = c.active.Version()
		s.ActiveState = c.active.State()
	}
	if c.waiting != nil {
		s.WaitingVersion = c.waiting.Version()
		s.UpdateAvailable = true
	}
	return s
}

func (c *Container) activeWorker() *Worker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.State() != StateActivated {
		return nil
	}
	return c.active
}

func (c *Container) broadcast(msg string) {
	if c.broadcaster != nil {
		c.broadcaster.Broadcast(msg)
	}
}

// Handler serves manifest paths through the active worker and passes every
// other request to next.
func (c *Container) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		worker := c.activeWorker()
		if worker == nil || (r.Method != http.MethodGet && r.Method != http.MethodHead) || !worker.Handles(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		resp, err := worker.Fetch(r.Context(), r.URL.Path)
		if err != nil {
			http.Error(w, "app shell unavailable", http.StatusBadGateway)
			return
		}
		for k, v := range resp.Header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
		w.WriteHeader(resp.Status)
		if r.Method != http.MethodHead {
			_, _ = w.Write(resp.Body)
		}
	})
}
