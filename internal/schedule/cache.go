package schedule

import (
	"context"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"github.com/gearitforward/gearscout-sync/internal/gearscout"
	"github.com/gearitforward/gearscout-sync/internal/metrics"
	"github.com/gearitforward/gearscout-sync/internal/notifier"
	"github.com/gearitforward/gearscout-sync/internal/scouting"
	"github.com/gearitforward/gearscout-sync/internal/storage"
)

// New creates a Cache and restores any schedule kept in the session scope.
func New(client gearscout.Client, session storage.Store, notifier notifier.Notifier, metrics metrics.Metrics, opts Options) *Cache {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.GameYear == 0 {
		opts.GameYear = DefaultGameYear
	}
	c := &Cache{
		client:    client,
		session:   session,
		notifier:  notifier,
		metrics:   metrics,
		opts:      opts,
		debounced: debounce.New(opts.Debounce),
	}
	c.hydrate()
	return c
}

func (c *Cache) hydrate() {
	snap := storage.GetJSON(c.session, storage.KeySchedule, snapshot{})
	if snap.EventCode == "" || snap.Lineups == nil {
		return
	}
	c.schedule = snap.Lineups
	c.eventCode = snap.EventCode
	log.Debug("Restored schedule from session", "event", snap.EventCode, "matches", len(snap.Lineups))
}

// Fetch loads the schedule for eventCode after the debounce window. Only the
// last call inside the window reaches the network.
func (c *Cache) Fetch(eventCode string) {
	c.debounced(func() {
		c.Load(context.Background(), eventCode)
	})
}

// Load fetches immediately. It is a no-op for a blank code or a code whose
// schedule is already cached; otherwise completion callbacks run afterwards
// whether or not the fetch succeeded.
func (c *Cache) Load(ctx context.Context, eventCode string) {
	code := scouting.SanitizeEventCode(eventCode)
	if code == "" {
		log.Debug("Ignoring schedule fetch for blank event code")
		return
	}

	c.mu.Lock()
	if c.eventCode == code && c.schedule != nil {
		c.mu.Unlock()
		log.Debug("Schedule already cached", "event", code)
		return
	}
	c.loading = true
	c.mu.Unlock()

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	log.Info("Fetching event schedule", "event", code, "game_year", c.opts.GameYear)
	lineups, err := c.client.GetEventSchedule(ctx, c.opts.GameYear, code)
	if err == nil && lineups == nil {
		lineups = []gearscout.Lineup{}
	}

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.schedule = nil
		c.eventCode = ""
	} else {
		c.schedule = lineups
		c.eventCode = code
	}
	callbacks := append([]func(){}, c.callbacks...)
	c.mu.Unlock()

	if err != nil {
		log.Warn("Failed to fetch schedule", "event", code, "error", err)
		c.metrics.IncScheduleFetches("failure")
		if rerr := c.session.Remove(storage.KeySchedule); rerr != nil {
			log.Warn("Failed to clear session schedule", "error", rerr)
		}
		c.notifier.Error(MsgFetchFailed, notifier.ErrorDuration)
	} else {
		c.metrics.IncScheduleFetches("success")
		if err := storage.SetJSON(c.session, storage.KeySchedule, snapshot{EventCode: code, Lineups: lineups}); err != nil {
			log.Warn("Failed to persist schedule to session, keeping it in memory only", "event", code, "matches", len(lineups), "error", err)
		}
	}

	for _, cb := range callbacks {
		cb()
	}
}

// OnLoadComplete registers cb to run after every completed fetch.
func (c *Cache) OnLoadComplete(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, cb)
}

// Get returns the cached schedule, or nil when none is loaded.
func (c *Cache) Get() []gearscout.Lineup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schedule
}

func (c *Cache) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// EventCode is the code the cached schedule belongs to.
func (c *Cache) EventCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eventCode
}

// MatchLineup returns the lineup for a 1-indexed match number.
func (c *Cache) MatchLineup(matchNumber int) (gearscout.Lineup, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := matchNumber - 1
	if i < 0 || i >= len(c.schedule) {
		return gearscout.Lineup{}, false
	}
	return c.schedule[i], true
}

// TeamsInMatch returns the red and blue team numbers for a match.
func (c *Cache) TeamsInMatch(matchNumber int) (Teams, bool) {
	l, ok := c.MatchLineup(matchNumber)
	if !ok {
		return Teams{}, false
	}
	return Teams{Red: l.Red(), Blue: l.Blue()}, true
}

// AllianceFor reports which alliance robot plays on in a match, or
// AllianceUnknown if the schedule does not say.
func (c *Cache) AllianceFor(matchNumber int, robot string) scouting.AllianceColor {
	teams, ok := c.TeamsInMatch(matchNumber)
	if !ok {
		return scouting.AllianceUnknown
	}
	for _, t := range teams.Red {
		if t == robot {
			return scouting.AllianceRed
		}
	}
	for _, t := range teams.Blue {
		if t == robot {
			return scouting.AllianceBlue
		}
	}
	return scouting.AllianceUnknown
}
