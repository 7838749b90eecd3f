package schedule

import (
	"sync"
	"time"

	"github.com/gearitforward/gearscout-sync/internal/gearscout"
	"github.com/gearitforward/gearscout-sync/internal/metrics"
	"github.com/gearitforward/gearscout-sync/internal/notifier"
	"github.com/gearitforward/gearscout-sync/internal/storage"
)

// MsgFetchFailed is shown when the schedule cannot be loaded.
const MsgFetchFailed = "Failed to load event schedule. Manual team entry will be used."

// Defaults used when Options leaves a field zero.
const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultGameYear = 2026
)

type Options struct {
	Debounce time.Duration
	GameYear int
	// Timeout bounds a single fetch; zero relies on the client's own timeout.
	Timeout time.Duration
}

// Teams are the string team numbers on each alliance for one match.
type Teams struct {
	Red  []string `json:"red"`
	Blue []string `json:"blue"`
}

// snapshot is what the session scope keeps across page reloads.
type snapshot struct {
	EventCode string             `json:"eventCode"`
	Lineups   []gearscout.Lineup `json:"lineups"`
}

// Cache holds the schedule for the event currently being scouted.
type Cache struct {
	client   gearscout.Client
	session  storage.Store
	notifier notifier.Notifier
	metrics  metrics.Metrics
	opts     Options

	debounced func(f func())

	mu        sync.Mutex
	schedule  []gearscout.Lineup
	eventCode string
	loading   bool
	callbacks []func()
}
