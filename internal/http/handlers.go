package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gearitforward/gearscout-sync/internal/scouting"
	"github.com/gearitforward/gearscout-sync/internal/shellcache"
	"github.com/gearitforward/gearscout-sync/internal/storage"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// StatsHandler returns the lifetime counters kept in the database.
func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Counters == nil {
			writeJSON(w, http.StatusOK, map[string]int{})
			return
		}
		stats, err := s.Counters.GetAll()
		if err != nil {
			log.Error("Failed to read counters", "error", err)
			http.Error(w, "Failed to read stats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := storage.LoadIdentity(s.Session)
		if !ok {
			writeJSON(w, http.StatusOK, sessionResponse{})
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{
			LoggedIn:    true,
			TeamNumber:  id.TeamNumber,
			ScouterName: id.ScouterName,
			EventCode:   id.EventCode,
			TBACode:     storage.GetString(s.Session, storage.KeyTBACode, ""),
		})
	}
}

// LoginHandler stores the scouter's identity and starts loading the event
// schedule when a TBA code is given.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn("Failed to decode login request", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		id := scouting.Identity{
			TeamNumber:  req.TeamNumber,
			ScouterName: req.ScouterName,
			EventCode:   req.EventCode,
			SecretCode:  req.SecretCode,
		}.Sanitize()
		if !id.Valid() {
			http.Error(w, "Team number, scouter name and event code are required.", http.StatusBadRequest)
			return
		}
		if !id.ValidTeamNumber() {
			http.Error(w, fmt.Sprintf("Team number must be between %d and %d.", scouting.MinTeamNumber, scouting.MaxTeamNumber), http.StatusBadRequest)
			return
		}
		tba := scouting.SanitizeEventCode(req.TBACode)
		if len(tba) > scouting.MaxTBACodeLength {
			http.Error(w, fmt.Sprintf("TBA code must be at most %d characters.", scouting.MaxTBACodeLength), http.StatusBadRequest)
			return
		}

		if err := storage.SaveIdentity(s.Session, id); err != nil {
			log.Error("Failed to save identity", "error", err)
			http.Error(w, "Failed to save session", http.StatusInternalServerError)
			return
		}
		if s.Feed != nil {
			s.Feed.ClearLoginRequired()
		}

		if tba != "" {
			storage.SetString(s.Session, storage.KeyTBACode, tba)
			if s.Schedule != nil {
				s.Schedule.Fetch(tba)
			}
		}
		log.Info("Scouter logged in", "scouter", id.ScouterName, "team", id.TeamNumber, "event", id.EventCode)
		writeJSON(w, http.StatusOK, sessionResponse{
			LoggedIn:    true,
			TeamNumber:  id.TeamNumber,
			ScouterName: id.ScouterName,
			EventCode:   id.EventCode,
			TBACode:     tba,
		})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storage.ClearIdentity(s.Session)
		log.Info("Scouter logged out")
		w.WriteHeader(http.StatusNoContent)
	}
}

// SaveMatchHandler upserts one scouted match into the local queue.
func (s *Server) SaveMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.identity(w)
		if !ok {
			return
		}
		// Form fields arrive as strings or numbers depending on the input
		// type, so decode through the same coercion stored records use.
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			log.Warn("Failed to decode match", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		rec, _, err := scouting.Migrate(raw)
		if err != nil {
			log.Warn("Failed to decode match", "error", err)
			http.Error(w, "Invalid match", http.StatusBadRequest)
			return
		}
		if !rec.Valid() {
			http.Error(w, "Match number and robot number are required.", http.StatusBadRequest)
			return
		}
		if err := rec.Validate(); err != nil {
			log.Warn("Rejected match outside form limits", "match", rec.MatchNumber, "robot", rec.RobotNumber, "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.Queue.Save(id, rec); err != nil {
			if errors.Is(err, storage.ErrQuotaExceeded) {
				log.Warn("Storage full, match not saved", "match", rec.MatchNumber, "robot", rec.RobotNumber, "error", err)
				http.Error(w, MsgStorageFull, http.StatusInsufficientStorage)
				return
			}
			log.Error("Failed to save match", "match", rec.MatchNumber, "robot", rec.RobotNumber, "error", err)
			http.Error(w, "Failed to save match", http.StatusInternalServerError)
			return
		}
		s.Draft.Clear()

		pending := len(s.Queue.Pending(id))
		s.Metrics.SetPendingMatches(pending)
		writeJSON(w, http.StatusCreated, map[string]int{"pending": pending})
	}
}

func (s *Server) PendingMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.identity(w)
		if !ok {
			return
		}
		pending := s.Queue.Pending(id)
		s.Metrics.SetPendingMatches(len(pending))
		writeJSON(w, http.StatusOK, pending)
	}
}

// DeadLetterHandler lists matches the server keeps rejecting.
func (s *Server) DeadLetterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.identity(w)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.Queue.DeadLettered(id, s.Cfg.Queue.MaxRejections))
	}
}

func (s *Server) SubmitMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.identity(w)
		if !ok {
			return
		}
		isDryRun := isDryRunFromContext(r)
		log.Info("Starting match submission...", "dry_run", isDryRun)

		// The run outlives the request; a dropped connection must not
		// strand half the queue.
		summary := s.Submitter.SubmitAll(context.WithoutCancel(r.Context()), id, isDryRun)
		if summary.Busy {
			writeJSON(w, http.StatusConflict, summary)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) CleanMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.identity(w)
		if !ok {
			return
		}
		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would have cleaned match queue")
			writeJSON(w, http.StatusOK, map[string]int{"removed": 0})
			return
		}
		removed := s.Queue.Clean(id)
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
	}
}

func (s *Server) GetDraftHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Draft.All())
	}
}

// SaveDraftHandler saves each field of an in-progress entry.
func (s *Server) SaveDraftHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]string
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		for field, value := range fields {
			err := s.Draft.Save(field, value)
			switch {
			case err == nil:
			case errors.Is(err, storage.ErrUnknownField):
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			case errors.Is(err, storage.ErrQuotaExceeded):
				http.Error(w, MsgStorageFull, http.StatusInsufficientStorage)
				return
			default:
				log.Error("Failed to save draft field", "field", field, "error", err)
				http.Error(w, "Failed to save draft", http.StatusInternalServerError)
				return
			}
		}
		writeJSON(w, http.StatusOK, s.Draft.All())
	}
}

func (s *Server) ClearDraftHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Draft.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}

// FetchScheduleHandler starts a debounced schedule load, or loads it
// immediately when wait=true.
func (s *Server) FetchScheduleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			EventCode string `json:"eventCode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		code := req.EventCode
		if code == "" {
			code = storage.GetString(s.Session, storage.KeyTBACode, "")
		}

		if r.URL.Query().Get("wait") == "true" {
			s.Schedule.Load(r.Context(), code)
			writeJSON(w, http.StatusOK, s.scheduleResponse())
			return
		}
		s.Schedule.Fetch(code)
		w.WriteHeader(http.StatusAccepted)
	}
}

// GetScheduleHandler returns the cached schedule, or one match's alliances
// when match is given. With robot as well, it also reports that robot's
// alliance so the form can prefill it.
func (s *Server) GetScheduleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchParam := r.URL.Query().Get("match")
		if matchParam == "" {
			writeJSON(w, http.StatusOK, s.scheduleResponse())
			return
		}
		n, err := strconv.Atoi(matchParam)
		if err != nil {
			http.Error(w, "match must be a number", http.StatusBadRequest)
			return
		}
		teams, ok := s.Schedule.TeamsInMatch(n)
		if !ok {
			http.Error(w, "Match not in schedule", http.StatusNotFound)
			return
		}
		resp := matchTeamsResponse{Teams: teams}
		if robot := r.URL.Query().Get("robot"); robot != "" {
			resp.Alliance = s.Schedule.AllianceFor(n, robot)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) scheduleResponse() scheduleResponse {
	lineups := s.Schedule.Get()
	resp := scheduleResponse{EventCode: s.Schedule.EventCode(), Loading: s.Schedule.IsLoading()}
	if lineups != nil {
		resp.Lineups = lineups
	}
	return resp
}

func (s *Server) NotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := notificationsResponse{Toasts: s.Feed.Drain()}
		resp.LoginRequired, resp.Reason = s.Feed.LoginRequired()
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) ShellStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp shellResponse
		if s.Shell != nil {
			resp.Status = s.Shell.Status()
		}
		if s.Hub != nil {
			resp.Clients = s.Hub.Clients()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// SkipWaitingHandler activates a waiting app shell update.
func (s *Server) SkipWaitingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Shell == nil {
			http.Error(w, "App shell cache is disabled", http.StatusNotFound)
			return
		}
		if err := s.Shell.HandleMessage(r.Context(), shellcache.MsgSkipWaiting); err != nil {
			log.Error("Failed to activate update", "error", err)
			http.Error(w, "Failed to activate update", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, s.Shell.Status())
	}
}

// identity returns the logged-in scouter, or writes 401.
func (s *Server) identity(w http.ResponseWriter) (scouting.Identity, bool) {
	id, ok := storage.LoadIdentity(s.Session)
	if !ok {
		http.Error(w, "Not logged in", http.StatusUnauthorized)
		return scouting.Identity{}, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}
