package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	Submissions        *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
	PendingMatches     prometheus.Gauge
	ScheduleFetches    *prometheus.CounterVec
	ShellCache         *prometheus.CounterVec
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}

// Lifetime counter keys kept in the metrics table.
const (
	KeySubmissionRuns   = "submission_runs"
	KeyMatchesSubmitted = "matches_submitted"
	KeyMatchesRejected  = "matches_rejected"
)
