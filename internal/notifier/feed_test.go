package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedDrain(t *testing.T) {
	f := NewFeed(10)
	f.Success("All 2 matches submitted successfully!", SuccessDuration)
	f.Error("Failed to load event schedule. Manual team entry will be used.", ErrorDuration)

	toasts := f.Drain()
	require.Len(t, toasts, 2)
	assert.Equal(t, LevelSuccess, toasts[0].Level)
	assert.Equal(t, int64(3000), toasts[0].DurationMs)
	assert.Equal(t, LevelError, toasts[1].Level)
	assert.Equal(t, int64(5000), toasts[1].DurationMs)
	assert.Less(t, toasts[0].ID, toasts[1].ID)

	assert.Empty(t, f.Drain())
}

func TestFeedDropsOldestWhenFull(t *testing.T) {
	f := NewFeed(2)
	f.Success("one", SuccessDuration)
	f.Success("two", SuccessDuration)
	f.Success("three", SuccessDuration)

	toasts := f.Drain()
	require.Len(t, toasts, 2)
	assert.Equal(t, "two", toasts[0].Message)
	assert.Equal(t, "three", toasts[1].Message)
}

func TestFeedLoginRequired(t *testing.T) {
	f := NewFeed(0)
	var hooked string
	f.OnLoginRequired(func(reason string) { hooked = reason })

	required, _ := f.LoginRequired()
	assert.False(t, required)

	f.RequireLogin("unauthorized")
	required, reason := f.LoginRequired()
	assert.True(t, required)
	assert.Equal(t, "unauthorized", reason)
	assert.Equal(t, "unauthorized", hooked)

	f.ClearLoginRequired()
	required, _ = f.LoginRequired()
	assert.False(t, required)
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewMock(), NewMock()
	m := Multi{a, b}

	m.Success("ok", SuccessDuration)
	m.Error("bad", ErrorDuration)
	m.RequireLogin("expired")

	for _, n := range []*Mock{a, b} {
		assert.Len(t, n.Successes(), 1)
		assert.Len(t, n.Errors(), 1)
		assert.Equal(t, []string{"expired"}, n.LoginRequests())
	}
}
