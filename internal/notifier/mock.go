package notifier

import (
	"sync"
	"time"
)

// Message is a recorded Success or Error call.
type Message struct {
	Text     string
	Duration time.Duration
}

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SuccessCalls      []Message
	ErrorCalls        []Message
	RequireLoginCalls []string
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

var _ Notifier = (*Mock)(nil)

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessCalls = nil
	m.ErrorCalls = nil
	m.RequireLoginCalls = nil
}

func (m *Mock) Success(message string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessCalls = append(m.SuccessCalls, Message{Text: message, Duration: duration})
}

func (m *Mock) Error(message string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalls = append(m.ErrorCalls, Message{Text: message, Duration: duration})
}

func (m *Mock) RequireLogin(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequireLoginCalls = append(m.RequireLoginCalls, reason)
}

// Errors returns a copy of the recorded Error calls.
func (m *Mock) Errors() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.ErrorCalls...)
}

// Successes returns a copy of the recorded Success calls.
func (m *Mock) Successes() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.SuccessCalls...)
}

// LoginRequests returns a copy of the recorded RequireLogin reasons.
func (m *Mock) LoginRequests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.RequireLoginCalls...)
}
