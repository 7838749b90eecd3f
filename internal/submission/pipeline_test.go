package submission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gearitforward/gearscout-sync/internal/gearscout"
	"github.com/gearitforward/gearscout-sync/internal/metrics"
	"github.com/gearitforward/gearscout-sync/internal/notifier"
	"github.com/gearitforward/gearscout-sync/internal/queue"
	"github.com/gearitforward/gearscout-sync/internal/scouting"
	"github.com/gearitforward/gearscout-sync/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = scouting.Identity{TeamNumber: "6238", ScouterName: "ava", SecretCode: "s3cret", EventCode: "2026wasno"}

type fixture struct {
	kv       *storage.Mock
	queue    queue.Queue
	client   *gearscout.MockClient
	notif    *notifier.Mock
	metrics  *metrics.Mock
	pipeline *Pipeline
	// delays records every delay passed to the scheduler.
	delays []time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		kv:      storage.NewMock(),
		client:  gearscout.NewMockClient(),
		notif:   notifier.NewMock(),
		metrics: metrics.NewMock(),
	}
	f.queue = queue.New(f.kv)
	f.pipeline = New(f.queue, f.client, f.notif, f.metrics, nil, Options{
		GameYear:          2026,
		AuthRedirectDelay: 2 * time.Second,
		MaxRejections:     3,
	})
	f.pipeline.SetScheduler(func(d time.Duration, fn func()) {
		f.delays = append(f.delays, d)
		fn()
	})
	return f
}

func (f *fixture) save(t *testing.T, match int, robot string) {
	t.Helper()
	require.NoError(t, f.queue.Save(testIdentity, scouting.Record{MatchNumber: match, RobotNumber: robot, AllianceColor: scouting.AllianceRed}))
}

func statusErr(code int) error {
	return &gearscout.StatusError{StatusCode: code, Body: http.StatusText(code)}
}

func TestSubmitAll_AllSucceed(t *testing.T) {
	f := newFixture(t)
	f.save(t, 1, "254")
	f.save(t, 2, "1678")

	s := f.pipeline.SubmitAll(context.Background(), testIdentity, false)

	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, 2, s.Attempted)
	assert.Equal(t, 2, s.Submitted)
	assert.Equal(t, 0, s.Failed)
	assert.Equal(t, 0, s.Remaining)
	assert.Empty(t, f.queue.Load(testIdentity).Matches)

	require.Len(t, f.notif.Successes(), 1)
	assert.Equal(t, "All 2 match(es) submitted successfully!", f.notif.Successes()[0].Text)
	assert.Equal(t, notifier.SuccessDuration, f.notif.Successes()[0].Duration)
	assert.Empty(t, f.notif.Errors())
	assert.Equal(t, 2, f.metrics.Submissions(string(OutcomeSuccess)))
	assert.Equal(t, 1, f.metrics.SubmissionRuns())
}

func TestSubmitAll_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.save(t, 1, "254")
	f.save(t, 2, "1678")
	f.save(t, 3, "118")
	f.client.SubmitMatchFunc = func(ctx context.Context, id scouting.Identity, m gearscout.Match) error {
		if m.MatchNumber == "2" {
			return statusErr(http.StatusInternalServerError)
		}
		return nil
	}

	s := f.pipeline.SubmitAll(context.Background(), testIdentity, false)

	assert.Equal(t, 3, f.client.SubmitCount(), "a failure must not block later records")
	assert.Equal(t, 2, s.Submitted)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Remaining)

	pending := f.queue.Pending(testIdentity)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].MatchNumber)
	assert.False(t, pending[0].Submitted)

	require.Len(t, f.notif.Successes(), 1)
	assert.Equal(t, "2 match(es) submitted successfully!", f.notif.Successes()[0].Text)
	require.Len(t, f.notif.Errors(), 1)
	assert.Equal(t, "Failed to submit 1 match(es). 1 match(es) remain in local storage and will be submitted later.", f.notif.Errors()[0].Text)
	assert.Equal(t, notifier.FailureSummaryDuration, f.notif.Errors()[0].Duration)
	assert.Equal(t, 1, f.metrics.Submissions(string(OutcomeServer)))
}

func TestSubmitAll_AuthAbort(t *testing.T) {
	f := newFixture(t)
	f.save(t, 1, "254")
	f.save(t, 2, "1678")
	f.client.SubmitMatchFunc = func(ctx context.Context, id scouting.Identity, m gearscout.Match) error {
		return statusErr(http.StatusUnauthorized)
	}

	s := f.pipeline.SubmitAll(context.Background(), testIdentity, false)

	assert.Equal(t, 1, f.client.SubmitCount(), "the second record must never be attempted")
	assert.True(t, s.Aborted)
	assert.Equal(t, 0, s.Submitted)
	assert.Equal(t, 2, s.Remaining)
	assert.Len(t, f.queue.Pending(testIdentity), 2)

	require.Len(t, f.notif.Errors(), 1)
	assert.Equal(t, MsgAuthFailed, f.notif.Errors()[0].Text)
	assert.Equal(t, []time.Duration{2 * time.Second}, f.delays)
	assert.Len(t, f.notif.LoginRequests(), 1)
}

func TestSubmitAll_EmptyQueueMakesNoRequests(t *testing.T) {
	f := newFixture(t)

	s := f.pipeline.SubmitAll(context.Background(), testIdentity, false)

	assert.Equal(t, 0, f.client.SubmitCount())
	assert.Equal(t, 0, s.Attempted)
	assert.Empty(t, f.notif.Successes())
	assert.Empty(t, f.notif.Errors())
}

func TestSubmitAll_CleansInvalidRecordsFirst(t *testing.T) {
	f := newFixture(t)
	f.kv.Put(storage.KeyMultiMatchData, `{"scouterName":"ava","teamNumber":"6238","eventCode":"2026wasno","matches":[
		{"schemaVersion":2,"matchNumber":0,"robotNumber":"254","allianceColor":"RED","leaveValue":"none","leaveValueTeleop":"none","autoCycles":[],"cycles":[]},
		{"schemaVersion":2,"matchNumber":7,"robotNumber":"1678","allianceColor":"RED","leaveValue":"none","leaveValueTeleop":"none","autoCycles":[],"cycles":[]}
	]}`)

	s := f.pipeline.SubmitAll(context.Background(), testIdentity, false)

	assert.Equal(t, 1, s.Invalid)
	assert.Equal(t, 1, s.Submitted)
	require.Len(t, f.client.SubmitMatchCalls, 1)
	assert.Equal(t, "7", f.client.SubmitMatchCalls[0].MatchNumber)
}

func TestSubmitAll_DedupeKeepsLastOccurrence(t *testing.T) {
	f := newFixture(t)
	f.kv.Put(storage.KeyMultiMatchData, `{"scouterName":"ava","teamNumber":"6238","eventCode":"2026wasno","matches":[
		{"schemaVersion":2,"matchNumber":4,"robotNumber":"254","allianceColor":"RED","leftCounter":1,"leaveValue":"none","leaveValueTeleop":"none","autoCycles":[],"cycles":[]},
		{"schemaVersion":2,"matchNumber":5,"robotNumber":"118","allianceColor":"BLUE","leaveValue":"none","leaveValueTeleop":"none","autoCycles":[],"cycles":[]},
		{"schemaVersion":2,"matchNumber":4,"robotNumber":"254","allianceColor":"RED","leftCounter":9,"leaveValue":"none","leaveValueTeleop":"none","autoCycles":[],"cycles":[]}
	]}`)

	s := f.pipeline.SubmitAll(context.Background(), testIdentity, false)

	assert.Equal(t, 1, s.Duplicates)
	require.Len(t, f.client.SubmitMatchCalls, 2)
	first := f.client.SubmitMatchCalls[0]
	assert.Equal(t, "4", first.MatchNumber)
	assert.Equal(t, 9, first.Objectives[1].Count, "the later record's red-trench count wins")
	assert.Equal(t, "5", f.client.SubmitMatchCalls[1].MatchNumber)
	assert.Empty(t, f.queue.Load(testIdentity).Matches)
}

func TestSubmitAll_ValidationFailuresDeadLetter(t *testing.T) {
	f := newFixture(t)
	f.save(t, 1, "254")
	f.client.SubmitMatchFunc = func(ctx context.Context, id scouting.Identity, m gearscout.Match) error {
		return statusErr(http.StatusBadRequest)
	}

	for i := 0; i < 3; i++ {
		s := f.pipeline.SubmitAll(context.Background(), testIdentity, false)
		assert.Equal(t, 1, s.Failed)
	}
	assert.Equal(t, 3, f.client.SubmitCount())

	dead := f.queue.DeadLettered(testIdentity, 3)
	require.Len(t, dead, 1)
	assert.Contains(t, dead[0].LastError, "400")

	s := f.pipeline.SubmitAll(context.Background(), testIdentity, false)
	assert.Equal(t, 3, f.client.SubmitCount(), "dead-lettered records are not retried")
	assert.Equal(t, 1, s.DeadLettered)
	assert.Equal(t, 0, s.Attempted)
	assert.Equal(t, 1, s.Remaining)
}

func TestSubmitAll_UnreachableLeavesQueue(t *testing.T) {
	f := newFixture(t)
	f.save(t, 1, "254")
	f.client.SubmitMatchFunc = func(ctx context.Context, id scouting.Identity, m gearscout.Match) error {
		return fmt.Errorf("%w: dial tcp: connection refused", gearscout.ErrUnreachable)
	}

	s := f.pipeline.SubmitAll(context.Background(), testIdentity, false)

	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, OutcomeUnreachable, s.Results[0].Outcome)
	assert.Len(t, f.queue.Pending(testIdentity), 1)
	assert.Empty(t, f.queue.DeadLettered(testIdentity, 1))
}

func TestSubmitAll_DryRunDoesNotTouchQueueOrNetwork(t *testing.T) {
	f := newFixture(t)
	f.save(t, 1, "254")
	f.save(t, 2, "1678")
	casBefore := len(f.kv.CompareAndSwapCalls)

	s := f.pipeline.SubmitAll(context.Background(), testIdentity, true)

	assert.True(t, s.DryRun)
	assert.Equal(t, 2, s.Attempted)
	assert.Equal(t, 0, f.client.SubmitCount())
	assert.Len(t, f.queue.Pending(testIdentity), 2)
	assert.Equal(t, casBefore, len(f.kv.CompareAndSwapCalls))
	assert.Empty(t, f.notif.Successes())
	for _, r := range s.Results {
		assert.Equal(t, OutcomeDryRun, r.Outcome)
	}
}

func TestSubmitAll_ConcurrentCallIsBusy(t *testing.T) {
	f := newFixture(t)
	f.save(t, 1, "254")

	release := make(chan struct{})
	f.client.SubmitMatchFunc = func(ctx context.Context, id scouting.Identity, m gearscout.Match) error {
		<-release
		return nil
	}

	var wg sync.WaitGroup
	var first Summary
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = f.pipeline.SubmitAll(context.Background(), testIdentity, false)
	}()

	require.Eventually(t, func() bool { return f.client.SubmitCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, f.pipeline.InFlight())

	second := f.pipeline.SubmitAll(context.Background(), testIdentity, false)
	assert.True(t, second.Busy)

	close(release)
	wg.Wait()
	assert.False(t, first.Busy)
	assert.Equal(t, 1, first.Submitted)
	assert.Equal(t, 1, f.client.SubmitCount())
	assert.False(t, f.pipeline.InFlight())
}

func TestSubmitAll_ShutdownStopsBetweenMatches(t *testing.T) {
	f := newFixture(t)
	f.save(t, 1, "254")
	f.save(t, 2, "1678")

	// The background retry runs on the agent's signal context.
	shutdown, stop := context.WithCancel(context.Background())
	f.client.SubmitMatchFunc = func(ctx context.Context, id scouting.Identity, m gearscout.Match) error {
		stop()
		return nil
	}

	s := f.pipeline.SubmitAll(shutdown, testIdentity, false)

	assert.Equal(t, 1, f.client.SubmitCount())
	assert.Equal(t, 1, s.Submitted)
	assert.Equal(t, 1, s.Remaining)
	assert.Len(t, f.queue.Pending(testIdentity), 1, "the unsent match stays queued for the next start")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeSuccess},
		{statusErr(http.StatusBadRequest), OutcomeValidation},
		{statusErr(http.StatusUnauthorized), OutcomeUnauthorized},
		{statusErr(http.StatusBadGateway), OutcomeServer},
		{statusErr(http.StatusForbidden), OutcomeUnknown},
		{fmt.Errorf("%w: timeout", gearscout.ErrUnreachable), OutcomeUnreachable},
		{context.DeadlineExceeded, OutcomeUnreachable},
		{errors.New("boom"), OutcomeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
}
