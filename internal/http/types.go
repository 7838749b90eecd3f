package http

import (
	"net/http"

	"github.com/gearitforward/gearscout-sync/internal/config"
	"github.com/gearitforward/gearscout-sync/internal/metrics"
	"github.com/gearitforward/gearscout-sync/internal/notifier"
	"github.com/gearitforward/gearscout-sync/internal/queue"
	"github.com/gearitforward/gearscout-sync/internal/schedule"
	"github.com/gearitforward/gearscout-sync/internal/scouting"
	"github.com/gearitforward/gearscout-sync/internal/shellcache"
	"github.com/gearitforward/gearscout-sync/internal/storage"
	"github.com/gearitforward/gearscout-sync/internal/submission"
)

// MsgStorageFull is returned when a save does not fit in the durable store.
const MsgStorageFull = "Storage full, please submit pending matches."

// Deps are the services the local API is built on.
type Deps struct {
	Durable        storage.Store
	Session        storage.Store
	Queue          queue.Queue
	Submitter      submission.Submitter
	Schedule       *schedule.Cache
	Feed           *notifier.Feed
	Shell          *shellcache.Container
	Hub            *shellcache.Hub
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Counters       metrics.MetricsStore
	// AppShell serves the built UI; the shell cache sits in front of it.
	AppShell http.Handler
}

type Server struct {
	Deps
	Cfg    config.Config
	Draft  *storage.FormDraft
	Router *http.ServeMux
}

// sessionRequest is the login form.
type sessionRequest struct {
	TeamNumber  string `json:"teamNumber"`
	ScouterName string `json:"scouterName"`
	EventCode   string `json:"eventCode"`
	SecretCode  string `json:"secretCode"`
	TBACode     string `json:"tbaCode,omitempty"`
}

type sessionResponse struct {
	LoggedIn    bool   `json:"loggedIn"`
	TeamNumber  string `json:"teamNumber,omitempty"`
	ScouterName string `json:"scouterName,omitempty"`
	EventCode   string `json:"eventCode,omitempty"`
	TBACode     string `json:"tbaCode,omitempty"`
}

type scheduleResponse struct {
	EventCode string `json:"eventCode,omitempty"`
	Loading   bool   `json:"loading"`
	Lineups   any    `json:"lineups"`
}

type matchTeamsResponse struct {
	schedule.Teams
	Alliance scouting.AllianceColor `json:"alliance,omitempty"`
}

type notificationsResponse struct {
	Toasts        []notifier.Toast `json:"toasts"`
	LoginRequired bool             `json:"loginRequired"`
	Reason        string           `json:"reason,omitempty"`
}

type shellResponse struct {
	shellcache.Status
	Clients int `json:"clients"`
}
