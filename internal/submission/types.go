package submission

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gearitforward/gearscout-sync/internal/gearscout"
	"github.com/gearitforward/gearscout-sync/internal/metrics"
	"github.com/gearitforward/gearscout-sync/internal/notifier"
	"github.com/gearitforward/gearscout-sync/internal/queue"
)

// Outcome classifies a single submission attempt.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeValidation   Outcome = "validation"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeServer       Outcome = "server"
	OutcomeUnreachable  Outcome = "unreachable"
	OutcomeUnknown      Outcome = "unknown"
	OutcomeDryRun       Outcome = "dry_run"
)

// Classify maps a SubmitMatch error to an Outcome.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, gearscout.ErrUnreachable) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return OutcomeUnreachable
	}
	switch code := gearscout.StatusCode(err); {
	case code == http.StatusBadRequest:
		return OutcomeValidation
	case code == http.StatusUnauthorized:
		return OutcomeUnauthorized
	case code >= 500:
		return OutcomeServer
	}
	return OutcomeUnknown
}

// User-facing messages.
const (
	MsgAuthFailed     = "Authentication failed. Please log in again."
	MsgNoValidMatches = "No valid matches found. Please check your data and try again."
)

// Result is the outcome for one record in a run.
type Result struct {
	MatchNumber int     `json:"matchNumber"`
	RobotNumber string  `json:"robotNumber"`
	Outcome     Outcome `json:"outcome"`
	Status      int     `json:"status,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Summary reports one SubmitAll run.
type Summary struct {
	RunID        string   `json:"runId,omitempty"`
	DryRun       bool     `json:"dryRun,omitempty"`
	Attempted    int      `json:"attempted"`
	Submitted    int      `json:"submitted"`
	Failed       int      `json:"failed"`
	Remaining    int      `json:"remaining"`
	Invalid      int      `json:"invalid"`
	Duplicates   int      `json:"duplicates"`
	DeadLettered int      `json:"deadLettered"`
	Aborted      bool     `json:"aborted"`
	Busy         bool     `json:"busy"`
	Messages     []string `json:"messages"`
	Results      []Result `json:"results"`
}

// Options tunes a Pipeline.
type Options struct {
	GameYear          int
	AuthRedirectDelay time.Duration
	// MaxRejections is how many 400 responses a record may get before it is
	// skipped. Zero disables the limit.
	MaxRejections int
}

// Pipeline submits queued matches one at a time.
type Pipeline struct {
	queue    queue.Queue
	client   gearscout.Client
	notifier notifier.Notifier
	metrics  metrics.Metrics
	counters metrics.MetricsStore
	opts     Options

	inFlight atomic.Bool
	// after schedules f once d has elapsed.
	after func(d time.Duration, f func())
}
