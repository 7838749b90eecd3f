package notifier

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultFeedSize bounds how many undrained toasts are kept.
const DefaultFeedSize = 50

// Feed buffers toasts until the UI drains them. When full, the oldest toast
// is dropped.
type Feed struct {
	mu      sync.Mutex
	size    int
	nextID  int64
	toasts  []Toast
	login   bool
	reason  string
	onLogin []func(reason string)
	now     func() time.Time
}

// NewFeed creates a Feed holding at most size toasts. A non-positive size
// uses DefaultFeedSize.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{size: size, now: time.Now}
}

var _ Notifier = (*Feed)(nil)

func (f *Feed) Success(message string, duration time.Duration) {
	log.Info("Notify", "level", LevelSuccess, "message", message)
	f.push(LevelSuccess, message, duration)
}

func (f *Feed) Error(message string, duration time.Duration) {
	log.Warn("Notify", "level", LevelError, "message", message)
	f.push(LevelError, message, duration)
}

func (f *Feed) push(level Level, message string, duration time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.toasts = append(f.toasts, Toast{
		ID:         f.nextID,
		Level:      level,
		Message:    message,
		DurationMs: duration.Milliseconds(),
		CreatedAt:  f.now(),
	})
	if over := len(f.toasts) - f.size; over > 0 {
		f.toasts = append([]Toast(nil), f.toasts[over:]...)
	}
}

func (f *Feed) RequireLogin(reason string) {
	f.mu.Lock()
	f.login = true
	f.reason = reason
	hooks := append([]func(string){}, f.onLogin...)
	f.mu.Unlock()

	log.Warn("Login required", "reason", reason)
	for _, hook := range hooks {
		hook(reason)
	}
}

// OnLoginRequired registers a hook run on every RequireLogin.
func (f *Feed) OnLoginRequired(hook func(reason string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onLogin = append(f.onLogin, hook)
}

// Drain returns buffered toasts oldest first and empties the buffer.
func (f *Feed) Drain() []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.toasts
	f.toasts = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

// LoginRequired reports whether a login redirect is outstanding.
func (f *Feed) LoginRequired() (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.login, f.reason
}

// ClearLoginRequired is called once the scouter has logged in again.
func (f *Feed) ClearLoginRequired() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.login = false
	f.reason = ""
}
