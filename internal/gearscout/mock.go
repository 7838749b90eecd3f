package gearscout

import (
	"context"
	"sync"

	"github.com/gearitforward/gearscout-sync/internal/scouting"
)

// MockClient is a mock implementation of the Client interface for testing.
// It is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// Spies for method calls
	SubmitMatchFunc      func(ctx context.Context, id scouting.Identity, match Match) error
	GetEventScheduleFunc func(ctx context.Context, gameYear int, tbaCode string) ([]Lineup, error)

	// Call records
	SubmitMatchCalls      []Match
	GetEventScheduleCalls []string
}

// NewMockClient creates a new mock instance.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Client = (*MockClient)(nil)

// Reset clears all call records.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitMatchCalls = nil
	m.GetEventScheduleCalls = nil
}

func (m *MockClient) SubmitMatch(ctx context.Context, id scouting.Identity, match Match) error {
	m.mu.Lock()
	m.SubmitMatchCalls = append(m.SubmitMatchCalls, match)
	fn := m.SubmitMatchFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, id, match)
	}
	return nil
}

func (m *MockClient) GetEventSchedule(ctx context.Context, gameYear int, tbaCode string) ([]Lineup, error) {
	m.mu.Lock()
	m.GetEventScheduleCalls = append(m.GetEventScheduleCalls, tbaCode)
	fn := m.GetEventScheduleFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, gameYear, tbaCode)
	}
	return []Lineup{}, nil
}

// SubmitCount returns the number of SubmitMatch calls so far.
func (m *MockClient) SubmitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SubmitMatchCalls)
}

// ScheduleCount returns the number of GetEventSchedule calls so far.
func (m *MockClient) ScheduleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GetEventScheduleCalls)
}
