package http

import (
	"net/http"

	"github.com/gearitforward/gearscout-sync/internal/config"
	"github.com/gearitforward/gearscout-sync/internal/storage"
)

func NewServer(cfg config.Config, deps Deps) *Server {
	server := &Server{
		Deps:   deps,
		Cfg:    cfg,
		Draft:  storage.NewFormDraft(deps.Durable),
		Router: http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All API handlers are wrapped with middleware using the Chain helper.
	if s.MetricsHandler != nil {
		s.Router.Handle("GET /metrics", s.MetricsHandler)
	}
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("GET /api/stats", Chain(s.StatsHandler(), paramsMiddleware))

	s.Router.Handle("GET /api/session", Chain(s.GetSessionHandler(), paramsMiddleware))
	s.Router.Handle("POST /api/session", Chain(s.LoginHandler(), paramsMiddleware))
	s.Router.Handle("DELETE /api/session", Chain(s.LogoutHandler(), paramsMiddleware))

	s.Router.Handle("POST /api/matches", Chain(s.SaveMatchHandler(), paramsMiddleware))
	s.Router.Handle("GET /api/matches/pending", Chain(s.PendingMatchesHandler(), paramsMiddleware))
	s.Router.Handle("GET /api/matches/dead-letter", Chain(s.DeadLetterHandler(), paramsMiddleware))
	s.Router.Handle("POST /api/matches/submit", Chain(s.SubmitMatchesHandler(), paramsMiddleware))
	s.Router.Handle("POST /api/matches/clean", Chain(s.CleanMatchesHandler(), paramsMiddleware))

	s.Router.Handle("GET /api/draft", Chain(s.GetDraftHandler(), paramsMiddleware))
	s.Router.Handle("PUT /api/draft", Chain(s.SaveDraftHandler(), paramsMiddleware))
	s.Router.Handle("DELETE /api/draft", Chain(s.ClearDraftHandler(), paramsMiddleware))

	s.Router.Handle("POST /api/schedule/fetch", Chain(s.FetchScheduleHandler(), paramsMiddleware))
	s.Router.Handle("GET /api/schedule", Chain(s.GetScheduleHandler(), paramsMiddleware))

	s.Router.Handle("GET /api/notifications", Chain(s.NotificationsHandler(), paramsMiddleware))

	s.Router.Handle("GET /api/sw", Chain(s.ShellStatusHandler(), paramsMiddleware))
	s.Router.Handle("POST /api/sw/skip-waiting", Chain(s.SkipWaitingHandler(), paramsMiddleware))
	if s.Hub != nil {
		s.Router.Handle("GET /sw", s.Hub)
	}

	s.Router.Handle("/", s.appShell())
}

// appShell serves the UI, through the shell cache when one is registered.
func (s *Server) appShell() http.Handler {
	next := s.AppShell
	if next == nil {
		next = http.NotFoundHandler()
	}
	if s.Shell == nil {
		return next
	}
	return s.Shell.Handler(next)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
