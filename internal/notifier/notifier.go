package notifier

import "time"

// Toast durations used by the submission and schedule flows.
const (
	SuccessDuration        = 3 * time.Second
	ErrorDuration          = 5 * time.Second
	FailureSummaryDuration = 8 * time.Second
)

// Notifier defines a high-level interface for telling the scouter what happened.
// This decouples the rest of the application from how messages are displayed.
type Notifier interface {
	Success(message string, duration time.Duration)
	Error(message string, duration time.Duration)
	// RequireLogin asks the UI to send the scouter back to the login view.
	RequireLogin(reason string)
}

// Level is the severity of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is one transient message for the UI.
type Toast struct {
	ID         int64     `json:"id"`
	Level      Level     `json:"level"`
	Message    string    `json:"message"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Multi fans every notification out to all of its notifiers.
type Multi []Notifier

var _ Notifier = Multi(nil)

func (m Multi) Success(message string, duration time.Duration) {
	for _, n := range m {
		n.Success(message, duration)
	}
}

func (m Multi) Error(message string, duration time.Duration) {
	for _, n := range m {
		n.Error(message, duration)
	}
}

func (m Multi) RequireLogin(reason string) {
	for _, n := range m {
		n.RequireLogin(reason)
	}
}
