package shellcache

import (
	"context"
	"net/http"
	"sync"
)

// Control messages exchanged with open pages.
const (
	MsgSkipWaiting     = "SKIP_WAITING"
	MsgUpdated         = "UPDATED"
	MsgUpdateAvailable = "UPDATE_AVAILABLE"
)

// State is a worker's lifecycle position.
type State string

const (
	StateInstalling State = "installing"
	StateWaiting    State = "waiting"
	StateActivating State = "activating"
	StateActivated  State = "activated"
	StateRedundant  State = "redundant"
)

// Response is a cached HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status <= 299
}

// Cache is one named set of cached responses, keyed by path.
type Cache interface {
	Match(ctx context.Context, path string) (Response, bool, error)
	Put(ctx context.Context, path string, resp Response) error
	// AddAll fetches every path and stores them all, or stores nothing if
	// any fetch fails or is not OK.
	AddAll(ctx context.Context, paths []string, fetcher Fetcher) error
}

// CacheStorage manages named caches.
type CacheStorage interface {
	Open(ctx context.Context, name string) (Cache, error)
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) (bool, error)
}

// Fetcher retrieves a path from the network.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (Response, error)
}

// Broadcaster delivers a control message to every open page.
type Broadcaster interface {
	Broadcast(msg string)
}

// Status describes the registration for the UI.
type Status struct {
	ActiveVersion   string `json:"activeVersion,omitempty"`
	ActiveState     State  `json:"activeState,omitempty"`
	WaitingVersion  string `json:"waitingVersion,omitempty"`
	UpdateAvailable bool   `json:"updateAvailable"`
}

// Container owns the active and waiting workers for the app shell.
type Container struct {
	storage     CacheStorage
	fetcher     Fetcher
	broadcaster Broadcaster
	metrics     cacheMetrics

	mu      sync.Mutex
	active  *Worker
	waiting *Worker
}

// cacheMetrics is the subset of metrics.Metrics the cache reports to.
type cacheMetrics interface {
	IncShellCache(result string)
}
