package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	submissions         map[string]int
	submissionDurations []float64
	pendingMatches      int
	scheduleFetches     map[string]int
	shellCache          map[string]int
	slackNotifSent      int
	slackNotifFailed    int
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		submissions:         make(map[string]int),
		submissionDurations: make([]float64, 0),
		scheduleFetches:     make(map[string]int),
		shellCache:          make(map[string]int),
	}
}

var _ Metrics = (*Mock)(nil)

func (m *Mock) IncSubmissions(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[outcome]++
}

func (m *Mock) ObserveSubmissionRun(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissionDurations = append(m.submissionDurations, duration)
}

func (m *Mock) SetPendingMatches(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingMatches = n
}

func (m *Mock) IncScheduleFetches(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduleFetches[result]++
}

func (m *Mock) IncShellCache(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shellCache[result]++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Submissions returns how many submissions were counted with the given outcome.
func (m *Mock) Submissions(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submissions[outcome]
}

// SubmissionRuns returns the number of times ObserveSubmissionRun was called.
func (m *Mock) SubmissionRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissionDurations)
}

// PendingMatches returns the last value passed to SetPendingMatches.
func (m *Mock) PendingMatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingMatches
}

// ScheduleFetches returns how many schedule fetches were counted with the given result.
func (m *Mock) ScheduleFetches(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheduleFetches[result]
}

// ShellCache returns how many shell cache lookups were counted with the given result.
func (m *Mock) ShellCache(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shellCache[result]
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
