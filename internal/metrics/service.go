package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gearscout_submissions_total",
			Help: "Match submission attempts by outcome.",
		}, []string{"outcome"}),
		SubmissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gearscout_submission_run_duration_seconds",
			Help:    "The duration of a full submit-all run.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PendingMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gearscout_pending_matches",
			Help: "Matches saved locally and not yet submitted.",
		}),
		ScheduleFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gearscout_schedule_fetches_total",
			Help: "Event schedule fetches by result.",
		}, []string{"result"}),
		ShellCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gearscout_shell_cache_requests_total",
			Help: "App shell requests served by the offline cache, by result.",
		}, []string{"result"}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gearscout_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gearscout_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gearscout_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.Submissions,
		s.SubmissionDuration,
		s.PendingMatches,
		s.ScheduleFetches,
		s.ShellCache,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncSubmissions(outcome string) {
	s.Submissions.WithLabelValues(outcome).Inc()
}

func (s *Service) ObserveSubmissionRun(duration float64) {
	s.SubmissionDuration.Observe(duration)
}

func (s *Service) SetPendingMatches(n int) {
	s.PendingMatches.Set(float64(n))
}

func (s *Service) IncScheduleFetches(result string) {
	s.ScheduleFetches.WithLabelValues(result).Inc()
}

func (s *Service) IncShellCache(result string) {
	s.ShellCache.WithLabelValues(result).Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
