package gearscout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gearitforward/gearscout-sync/internal/scouting"
)

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 1024

// APIClient talks to the GearScout API over HTTP.
type APIClient struct {
	httpClient *http.Client
	BaseURL    string
}

// NewClient creates a new GearScout client. A zero timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &APIClient{
		httpClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Ensure APIClient implements the Client interface.
var _ Client = (*APIClient)(nil)

// SubmitMatch posts one match for the identity's team.
func (c *APIClient) SubmitMatch(ctx context.Context, id scouting.Identity, match Match) error {
	endpoint := fmt.Sprintf("%s/v1/team/%s", c.BaseURL, url.PathEscape(id.TeamNumber))

	body, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("failed to encode match: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("secretCode", id.SecretCode)

	log.Debug("Submitting match to GearScout API", "url", endpoint, "match", match.MatchNumber, "robot", match.RobotNumber)
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// GetEventSchedule fetches the qualification schedule for an event.
func (c *APIClient) GetEventSchedule(ctx context.Context, gameYear int, tbaCode string) ([]Lineup, error) {
	endpoint := fmt.Sprintf("%s/v2/schedule/gameYear/%d/event/%s", c.BaseURL, gameYear, url.PathEscape(tbaCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	log.Debug("Requesting event schedule from GearScout API", "url", endpoint)
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lineups []Lineup
	if err := json.NewDecoder(resp.Body).Decode(&lineups); err != nil {
		return nil, fmt.Errorf("failed to decode schedule: %w", err)
	}
	log.Info("Fetched event schedule", "event", tbaCode, "matches", len(lineups))
	return lineups, nil
}

// do executes req and converts transport failures and non-2xx statuses into
// ErrUnreachable and *StatusError. On success the caller owns the body.
func (c *APIClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Error("Received non-OK HTTP status from GearScout API", "status", resp.StatusCode, "body", string(body))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}
