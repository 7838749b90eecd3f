package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	redStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	blueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	cellStyle  = lipgloss.NewStyle().PaddingRight(2)
)

// Response shapes, decoded loosely so the CLI does not depend on internal packages.
type matchRecord struct {
	MatchNumber   int    `json:"matchNumber"`
	RobotNumber   string `json:"robotNumber"`
	AllianceColor string `json:"allianceColor"`
	Timestamp     int64  `json:"timestamp"`
	Rejections    int    `json:"rejections"`
	LastError     string `json:"lastError"`
}

type summary struct {
	DryRun       bool     `json:"dryRun"`
	Attempted    int      `json:"attempted"`
	Submitted    int      `json:"submitted"`
	Failed       int      `json:"failed"`
	Remaining    int      `json:"remaining"`
	Invalid      int      `json:"invalid"`
	Duplicates   int      `json:"duplicates"`
	DeadLettered int      `json:"deadLettered"`
	Aborted      bool     `json:"aborted"`
	Messages     []string `json:"messages"`
}

type lineup struct {
	MatchNumber int `json:"matchNumber"`
	Red1        int `json:"red1"`
	Red2        int `json:"red2"`
	Red3        int `json:"red3"`
	Blue1       int `json:"blue1"`
	Blue2       int `json:"blue2"`
	Blue3       int `json:"blue3"`
}

type scheduleView struct {
	EventCode string   `json:"eventCode"`
	Loading   bool     `json:"loading"`
	Lineups   []lineup `json:"lineups"`
}

type notifications struct {
	Toasts []struct {
		Level     string    `json:"level"`
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"toasts"`
	LoginRequired bool   `json:"loginRequired"`
	Reason        string `json:"reason"`
}

type shellStatus struct {
	ActiveVersion   string `json:"activeVersion"`
	WaitingVersion  string `json:"waitingVersion"`
	UpdateAvailable bool   `json:"updateAvailable"`
	Clients         int    `json:"clients"`
}

func renderMatches(title string, records []matchRecord) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(records))))
	b.WriteString("\n")
	if len(records) == 0 {
		b.WriteString(mutedStyle.Render("nothing queued"))
		return b.String()
	}
	for _, r := range records {
		alliance := r.AllianceColor
		switch alliance {
		case "RED":
			alliance = redStyle.Render(alliance)
		case "BLUE":
			alliance = blueStyle.Render(alliance)
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			cellStyle.Render(fmt.Sprintf("Match %3d", r.MatchNumber)),
			cellStyle.Render(fmt.Sprintf("Robot %-5s", r.RobotNumber)),
			cellStyle.Render(alliance),
			mutedStyle.Render(humanize.Time(time.UnixMilli(r.Timestamp))),
		)
		b.WriteString(row)
		if r.Rejections > 0 {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  rejected %dx: %s", r.Rejections, r.LastError)))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSummary(s summary) string {
	var b strings.Builder
	title := "Submission"
	if s.DryRun {
		title += " (dry run)"
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	fmt.Fprintf(&b, "attempted %d  submitted %s  failed %s  remaining %d\n",
		s.Attempted, okStyle.Render(fmt.Sprint(s.Submitted)), errorStyle.Render(fmt.Sprint(s.Failed)), s.Remaining)
	if s.Invalid+s.Duplicates+s.DeadLettered > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("skipped: %d invalid, %d duplicate, %d rejected",
			s.Invalid, s.Duplicates, s.DeadLettered)) + "\n")
	}
	if s.Aborted {
		b.WriteString(errorStyle.Render("Run aborted: log in again") + "\n")
	}
	for _, m := range s.Messages {
		b.WriteString("• " + m + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSchedule(s scheduleView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Schedule " + orNone(s.EventCode)))
	if s.Loading {
		b.WriteString(mutedStyle.Render(" (loading)"))
	}
	b.WriteString("\n")
	if len(s.Lineups) == 0 {
		b.WriteString(mutedStyle.Render("no schedule loaded"))
		return b.String()
	}
	for _, l := range s.Lineups {
		fmt.Fprintf(&b, "%3d  %s  %s\n", l.MatchNumber,
			redStyle.Render(fmt.Sprintf("%5d %5d %5d", l.Red1, l.Red2, l.Red3)),
			blueStyle.Render(fmt.Sprintf("%5d %5d %5d", l.Blue1, l.Blue2, l.Blue3)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderNotifications(n notifications) string {
	var b strings.Builder
	if n.LoginRequired {
		b.WriteString(errorStyle.Render("Login required: "+n.Reason) + "\n")
	}
	if len(n.Toasts) == 0 {
		b.WriteString(mutedStyle.Render("no notifications"))
		return b.String()
	}
	for _, t := range n.Toasts {
		style := okStyle
		if t.Level == "error" {
			style = errorStyle
		}
		b.WriteString(style.Render(t.Message) + "  " + mutedStyle.Render(humanize.Time(t.CreatedAt)) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStats(stats map[string]int) string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Lifetime counters") + "\n")
	for _, k := range keys {
		b.WriteString(cellStyle.Render(fmt.Sprintf("%-22s", k)) + humanize.Comma(int64(stats[k])) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
