package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gearitforward/gearscout-sync/internal/gearscout"
	"github.com/gearitforward/gearscout-sync/internal/metrics"
	"github.com/gearitforward/gearscout-sync/internal/notifier"
	"github.com/gearitforward/gearscout-sync/internal/queue"
	"github.com/gearitforward/gearscout-sync/internal/scouting"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// New creates a new Pipeline. counters may be nil.
func New(q queue.Queue, client gearscout.Client, notifier notifier.Notifier, metrics metrics.Metrics, counters metrics.MetricsStore, opts Options) *Pipeline {
	return &Pipeline{
		queue:    q,
		client:   client,
		notifier: notifier,
		metrics:  metrics,
		counters: counters,
		opts:     opts,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

var _ Submitter = (*Pipeline)(nil)

// SetScheduler replaces how delayed work (the login redirect) is scheduled.
func (p *Pipeline) SetScheduler(after func(d time.Duration, f func())) {
	p.after = after
}

// InFlight reports whether a run is currently in progress.
func (p *Pipeline) InFlight() bool {
	return p.inFlight.Load()
}

// SubmitAll sends every pending record for id to the server, one at a time.
// Failures are reported in the Summary and through the notifier, never
// returned. A call made while another run is in flight returns immediately
// with Busy set.
//
// ctx should live as long as the agent, not a single request: cancelling it
// stops the run before the next record and leaves the rest queued.
func (p *Pipeline) SubmitAll(ctx context.Context, id scouting.Identity, dryRun bool) Summary {
	if !p.inFlight.CompareAndSwap(false, true) {
		log.Warn("Submission already in progress, ignoring request")
		return Summary{Busy: true, Messages: []string{}, Results: []Result{}}
	}
	defer p.inFlight.Store(false)

	start := time.Now()
	s := Summary{RunID: uuid.NewString(), DryRun: dryRun, Messages: []string{}, Results: []Result{}}
	logger := log.With("run_id", s.RunID)
	if dryRun {
		logger = logger.With("dry_run", true)
	}
	defer func() {
		p.metrics.ObserveSubmissionRun(time.Since(start).Seconds())
		p.metrics.SetPendingMatches(s.Remaining)
		p.count(metrics.KeySubmissionRuns)
	}()

	if !dryRun {
		s.Invalid = p.queue.Clean(id)
	}

	pending := p.queue.Pending(id)
	logger.Info("Starting submission", "pending", len(pending))
	if len(pending) == 0 {
		logger.Info("No pending matches to submit")
		return s
	}

	valid := lo.Filter(pending, func(m scouting.Record, _ int) bool {
		if !m.Valid() {
			logger.Warn("Skipping invalid match", "match", m.MatchNumber, "robot", m.RobotNumber)
			return false
		}
		return true
	})
	s.Invalid += len(pending) - len(valid)
	if len(valid) == 0 {
		logger.Error("No valid matches to submit")
		s.Remaining = len(pending)
		p.notifyError(&s, dryRun, MsgNoValidMatches, notifier.ErrorDuration)
		return s
	}

	live := lo.Filter(valid, func(m scouting.Record, _ int) bool { return !p.deadLettered(m) })
	s.DeadLettered = len(valid) - len(live)
	if s.DeadLettered > 0 {
		logger.Warn("Skipping matches rejected too many times", "count", s.DeadLettered, "max_rejections", p.opts.MaxRejections)
	}

	toSubmit := dedupe(live)
	s.Duplicates = len(live) - len(toSubmit)
	if s.Duplicates > 0 {
		logger.Warn("Removed duplicate matches", "count", s.Duplicates)
	}
	logger.Info("Attempting to submit matches", "count", len(toSubmit))

	var successful []scouting.Key
	for _, rec := range toSubmit {
		if err := ctx.Err(); err != nil {
			logger.Warn("Shutting down, leaving remaining matches queued", "error", err)
			break
		}

		match := ToWire(id, rec, p.opts.GameYear)
		s.Attempted++
		if dryRun {
			logger.Info("[Dry Run] Would submit match", "match", rec.MatchNumber, "robot", rec.RobotNumber, "objectives", len(match.Objectives))
			s.Results = append(s.Results, Result{MatchNumber: rec.MatchNumber, RobotNumber: rec.RobotNumber, Outcome: OutcomeDryRun})
			continue
		}

		logger.Info("Submitting match", "match", rec.MatchNumber, "robot", rec.RobotNumber)
		err := p.client.SubmitMatch(ctx, id, match)
		outcome := Classify(err)
		p.metrics.IncSubmissions(string(outcome))

		res := Result{MatchNumber: rec.MatchNumber, RobotNumber: rec.RobotNumber, Outcome: outcome, Status: gearscout.StatusCode(err)}
		if err != nil {
			res.Error = err.Error()
		}
		s.Results = append(s.Results, res)

		switch outcome {
		case OutcomeSuccess:
			logger.Info("Successfully submitted match", "match", rec.MatchNumber, "robot", rec.RobotNumber)
			successful = append(successful, rec.Key())
			s.Submitted++
		case OutcomeUnauthorized:
			s.Failed++
			s.Aborted = true
			logger.Error("Authentication failed, aborting submission", "match", rec.MatchNumber, "error", err)
			p.notifyError(&s, false, MsgAuthFailed, notifier.ErrorDuration)
			p.after(p.opts.AuthRedirectDelay, func() {
				p.notifier.RequireLogin("submission unauthorized")
			})
			s.Remaining = len(p.queue.Pending(id))
			return s
		case OutcomeValidation:
			s.Failed++
			logger.Error("Server rejected match", "match", rec.MatchNumber, "robot", rec.RobotNumber, "error", err)
			p.count(metrics.KeyMatchesRejected)
			if _, rerr := p.queue.RecordRejection(id, rec.Key(), res.Error); rerr != nil {
				logger.Error("Failed to record rejection", "match", rec.MatchNumber, "error", rerr)
			}
		default:
			s.Failed++
			logger.Error("Failed to submit match", "match", rec.MatchNumber, "robot", rec.RobotNumber, "outcome", outcome, "error", err)
		}
	}

	if len(successful) > 0 {
		logger.Info("Marking matches as submitted", "count", len(successful))
		if err := p.queue.MarkSubmitted(id, successful); err != nil {
			logger.Error("Error marking matches as submitted", "error", err)
		} else if _, err := p.queue.ClearSubmitted(id); err != nil {
			logger.Error("Error clearing submitted matches", "error", err)
		}
		for range successful {
			p.count(metrics.KeyMatchesSubmitted)
		}
	}

	s.Remaining = len(p.queue.Pending(id))
	p.report(&s, len(toSubmit), dryRun)
	logger.Info("Submission finished", "submitted", s.Submitted, "failed", s.Failed, "remaining", s.Remaining,
		"duration", time.Since(start))
	return s
}

// report produces the end-of-run toasts.
func (p *Pipeline) report(s *Summary, total int, dryRun bool) {
	if s.Submitted > 0 {
		if s.Submitted == total {
			p.notifySuccess(s, dryRun, fmt.Sprintf("All %d match(es) submitted successfully!", s.Submitted))
		} else {
			p.notifySuccess(s, dryRun, fmt.Sprintf("%d match(es) submitted successfully!", s.Submitted))
		}
	}
	if s.Failed > 0 {
		p.notifyError(s, dryRun, fmt.Sprintf(
			"Failed to submit %d match(es). %d match(es) remain in local storage and will be submitted later.",
			s.Failed, s.Remaining), notifier.FailureSummaryDuration)
	}
	if s.DeadLettered > 0 {
		p.notifyError(s, dryRun, fmt.Sprintf(
			"%d match(es) were rejected by the server and will not be retried until edited.", s.DeadLettered),
			notifier.ErrorDuration)
	}
}

func (p *Pipeline) notifySuccess(s *Summary, dryRun bool, msg string) {
	s.Messages = append(s.Messages, msg)
	if !dryRun {
		p.notifier.Success(msg, notifier.SuccessDuration)
	}
}

func (p *Pipeline) notifyError(s *Summary, dryRun bool, msg string, d time.Duration) {
	s.Messages = append(s.Messages, msg)
	if !dryRun {
		p.notifier.Error(msg, d)
	}
}

func (p *Pipeline) deadLettered(m scouting.Record) bool {
	return p.opts.MaxRejections > 0 && m.Rejections >= p.opts.MaxRejections
}

func (p *Pipeline) count(key string) {
	if p.counters != nil {
		p.counters.Increment(key)
	}
}

// dedupe keeps the last record for each key, in the position of its first
// occurrence.
func dedupe(records []scouting.Record) []scouting.Record {
	index := make(map[scouting.Key]int, len(records))
	out := make([]scouting.Record, 0, len(records))
	for _, r := range records {
		if i, ok := index[r.Key()]; ok {
			log.Warn("Duplicate match detected", "match", r.MatchNumber, "robot", r.RobotNumber)
			out[i] = r
			continue
		}
		index[r.Key()] = len(out)
		out = append(out, r)
	}
	return out
}
