package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gearitforward/gearscout-sync/internal/metrics"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
	calls                  int
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.calls++
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, true)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.SlackNotifSent())
}

func TestSendMessage_Success(t *testing.T) {
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	message := slackapi.NewBlockMessage(slackapi.NewSectionBlock(slackapi.NewTextBlockObject("plain_text", "hello", false, false), nil, nil))
	_, _, err := notifier.sendMessage(message, false)

	require.NoError(t, err)
	assert.Equal(t, 1, api.calls, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.SlackNotifSent())
	assert.Equal(t, 0, metrics.SlackNotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	_, _, err := notifier.sendMessage(slackapi.NewBlockMessage(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, metrics.SlackNotifSent())
	assert.Equal(t, 1, metrics.SlackNotifFailed())
}

func TestNotifierSuccessPostsSummary(t *testing.T) {
	api := &mockSlackAPI{}
	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics).WithScouter("ava")

	notifier.Success("All 3 matches submitted successfully!", 0)
	notifier.Error("Failed to submit 1 match.", 0)

	assert.Equal(t, 2, api.calls)
	assert.Equal(t, 2, metrics.SlackNotifSent())
}

func TestNotifierDryRunDoesNotPost(t *testing.T) {
	api := &mockSlackAPI{}
	notifier := NewNotifierWithAPI(api, "C123", metrics.NewMock()).WithDryRun(true)

	notifier.RequireLogin("unauthorized")
	assert.Equal(t, 0, api.calls)
}

func TestFormatIncludesScouter(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock()).WithScouter("ava")

	msg := notifier.format(":warning:", "Failed to load event schedule.")
	assert.Equal(t, ":warning: Failed to load event schedule.", msg.Text)
	require.Len(t, msg.Blocks.BlockSet, 2)
	assert.Equal(t, slackapi.MBTContext, msg.Blocks.BlockSet[1].BlockType())
}

func TestWebhookNotifierPostsText(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	metrics := metrics.NewMock()
	NewWebhookNotifier(server.URL, metrics).Success("2 matches submitted successfully!", 0)

	assert.Equal(t, ":white_check_mark: 2 matches submitted successfully!", body["text"])
	assert.NotNil(t, body["blocks"])
	assert.Equal(t, 1, metrics.SlackNotifSent())
}
