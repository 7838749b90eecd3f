package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	dryRun      bool
	waitFor     bool
	matchNumber int

	loginTeam    string
	loginScouter string
	loginEvent   string
	loginSecret  string
	loginTBA     string
)

func init() {
	submitCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be submitted without sending anything")
	scheduleFetchCmd.Flags().BoolVar(&waitFor, "wait", true, "Wait for the schedule to load")
	scheduleShowCmd.Flags().IntVar(&matchNumber, "match", 0, "Show only the alliances for this match")

	loginCmd.Flags().StringVar(&loginTeam, "team", "", "Your team number")
	loginCmd.Flags().StringVar(&loginScouter, "scouter", "", "Your name")
	loginCmd.Flags().StringVar(&loginEvent, "event", "", "Event code")
	loginCmd.Flags().StringVar(&loginSecret, "secret", "", "Team secret code")
	loginCmd.Flags().StringVar(&loginTBA, "tba", "", "The Blue Alliance event key used to load the schedule")
	for _, f := range []string{"team", "scouter", "event"} {
		_ = loginCmd.MarkFlagRequired(f)
	}

	scheduleCmd.AddCommand(scheduleFetchCmd, scheduleShowCmd)
	rootCmd.AddCommand(healthCmd, loginCmd, logoutCmd, pendingCmd, deadLetterCmd, submitCmd, cleanCmd,
		scheduleCmd, notificationsCmd, updateCmd, statsCmd, metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := doRequest(http.MethodGet, "/health", nil)
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render(string(body)))
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log a scouter in to the agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := doRequest(http.MethodPost, "/api/session", map[string]string{
			"teamNumber":  loginTeam,
			"scouterName": loginScouter,
			"eventCode":   loginEvent,
			"secretCode":  loginSecret,
			"tbaCode":     loginTBA,
		})
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("Logged in as %s (team %s, %s)", loginScouter, loginTeam, loginEvent)))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log the current scouter out",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := doRequest(http.MethodDelete, "/api/session", nil)
		if err == nil {
			fmt.Println(okStyle.Render("Logged out"))
		}
		return err
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List matches waiting to be submitted",
	RunE: func(cmd *cobra.Command, args []string) error {
		var records []matchRecord
		if err := getJSON("/api/matches/pending", &records); err != nil {
			return err
		}
		fmt.Println(renderMatches("Pending matches", records))
		return nil
	},
}

var deadLetterCmd = &cobra.Command{
	Use:   "dead-letter",
	Short: "List matches the server keeps rejecting",
	RunE: func(cmd *cobra.Command, args []string) error {
		var records []matchRecord
		if err := getJSON("/api/matches/dead-letter", &records); err != nil {
			return err
		}
		fmt.Println(renderMatches("Rejected matches", records))
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit every pending match",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/matches/submit"
		if dryRun {
			path += "?dry_run=true"
		}
		body, err := doRequest(http.MethodPost, path, nil)
		if err != nil {
			return err
		}
		var s summary
		if err := json.Unmarshal(body, &s); err != nil {
			return fmt.Errorf("failed to decode summary: %w", err)
		}
		fmt.Println(renderSummary(s))
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove submitted and invalid matches from the queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := doRequest(http.MethodPost, "/api/matches/clean", nil)
		if err != nil {
			return err
		}
		var res map[string]int
		if err := json.Unmarshal(body, &res); err != nil {
			return err
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("Removed %d match(es)", res["removed"])))
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Load or show the event schedule",
}

var scheduleFetchCmd = &cobra.Command{
	Use:   "fetch <event-code>",
	Short: "Load the schedule for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/schedule/fetch"
		if waitFor {
			path += "?wait=true"
		}
		body, err := doRequest(http.MethodPost, path, map[string]string{"eventCode": args[0]})
		if err != nil {
			return err
		}
		if !waitFor {
			fmt.Println(okStyle.Render("Schedule load started"))
			return nil
		}
		var s scheduleView
		if err := json.Unmarshal(body, &s); err != nil {
			return err
		}
		fmt.Println(renderSchedule(s))
		return nil
	},
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cached schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if matchNumber > 0 {
			var teams struct {
				Red  []string `json:"red"`
				Blue []string `json:"blue"`
			}
			if err := getJSON("/api/schedule?match="+strconv.Itoa(matchNumber), &teams); err != nil {
				return err
			}
			fmt.Printf("Match %d  %s  %s\n", matchNumber,
				redStyle.Render(strings.Join(teams.Red, " ")), blueStyle.Render(strings.Join(teams.Blue, " ")))
			return nil
		}
		var s scheduleView
		if err := getJSON("/api/schedule", &s); err != nil {
			return err
		}
		fmt.Println(renderSchedule(s))
		return nil
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show and clear pending notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		var n notifications
		if err := getJSON("/api/notifications", &n); err != nil {
			return err
		}
		fmt.Println(renderNotifications(n))
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Activate a waiting app update",
	RunE: func(cmd *cobra.Command, args []string) error {
		var before shellStatus
		if err := getJSON("/api/sw", &before); err != nil {
			return err
		}
		if !before.UpdateAvailable {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("No update waiting (active version %s)", orNone(before.ActiveVersion))))
			return nil
		}
		body, err := doRequest(http.MethodPost, "/api/sw/skip-waiting", nil)
		if err != nil {
			return err
		}
		var after shellStatus
		if err := json.Unmarshal(body, &after); err != nil {
			return err
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("Updated %s -> %s", orNone(before.ActiveVersion), after.ActiveVersion)))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lifetime submission counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats map[string]int
		if err := getJSON("/api/stats", &stats); err != nil {
			return err
		}
		fmt.Println(renderStats(stats))
		return nil
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get agent metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := doRequest(http.MethodGet, "/metrics", nil)
		if err != nil {
			return err
		}
		fmt.Println(string(body))
		return nil
	},
}

func getJSON(endpoint string, v any) error {
	body, err := doRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doRequest sends payload as JSON and returns the body of a 2xx response.
func doRequest(method, endpoint string, payload any) ([]byte, error) {
	url := strings.TrimRight(host, "/") + endpoint

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, fmt.Errorf("%s %s: status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
