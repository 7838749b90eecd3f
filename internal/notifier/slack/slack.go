package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gearitforward/gearscout-sync/internal/metrics"
	"github.com/gearitforward/gearscout-sync/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// webhookClient posts through an incoming webhook instead of the bot API.
type webhookClient struct {
	url string
}

func (w webhookClient) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return "", "", err
	}
	msg := &slack.WebhookMessage{Text: values.Get("text")}
	if raw := values.Get("blocks"); raw != "" {
		var blocks slack.Blocks
		if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
			return "", "", fmt.Errorf("failed to decode blocks: %w", err)
		}
		msg.Blocks = &blocks
	}
	if err := slack.PostWebhookContext(ctx, w.url, msg); err != nil {
		return "", "", err
	}
	return channelID, "", nil
}

var _ notifier.Notifier = &Notifier{}

// Notifier mirrors submission summaries to a team Slack channel so the
// scouting lead can see which scouters are falling behind.
type Notifier struct {
	api       slackClient
	channelID string
	creator   string
	metrics   metrics.Metrics
	dryRun    bool
}

// NewNotifier creates a Notifier that posts with a bot token.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       slack.New(token),
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewWebhookNotifier creates a Notifier that posts to an incoming webhook.
func NewWebhookNotifier(webhookURL string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:     webhookClient{url: webhookURL},
		metrics: metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// WithScouter labels every message with the scouter it came from.
func (s *Notifier) WithScouter(name string) *Notifier {
	c := *s
	c.creator = name
	return &c
}

// WithDryRun logs messages instead of posting them.
func (s *Notifier) WithDryRun(dryRun bool) *Notifier {
	c := *s
	c.dryRun = dryRun
	return &c
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionText(message.Text, false),
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) Success(message string, _ time.Duration) {
	_, _, _ = s.sendMessage(s.format(":white_check_mark:", message), s.dryRun)
}

func (s *Notifier) Error(message string, _ time.Duration) {
	_, _, _ = s.sendMessage(s.format(":warning:", message), s.dryRun)
}

func (s *Notifier) RequireLogin(reason string) {
	_, _, _ = s.sendMessage(s.format(":lock:", "Scouter needs to log in again: "+reason), s.dryRun)
}

// format builds a one-section Block Kit message with the scouter as context.
func (s *Notifier) format(emoji, text string) slack.Message {
	line := fmt.Sprintf("%s %s", emoji, text)
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", line, false, false), nil, nil),
	}
	if s.creator != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject("plain_text", "Scouter: "+s.creator, false, false)))
	}
	msg := slack.NewBlockMessage(blocks...)
	msg.Text = line
	return msg
}
