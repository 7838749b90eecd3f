package gearscout

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gearitforward/gearscout-sync/internal/scouting"
)

// ErrUnreachable wraps transport failures where no HTTP response was received.
var ErrUnreachable = errors.New("gearscout api unreachable")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gearscout api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("gearscout api returned status %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status from err, or 0 if err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Match is the submission payload for one scouted robot in one match.
type Match struct {
	GameYear      int                    `json:"gameYear"`
	EventCode     string                 `json:"eventCode"`
	MatchNumber   string                 `json:"matchNumber"`
	RobotNumber   string                 `json:"robotNumber"`
	Creator       string                 `json:"creator"`
	AllianceColor scouting.AllianceColor `json:"allianceColor"`
	AutoClimb     string                 `json:"autoClimb"`
	TeleopClimb   string                 `json:"teleopClimb"`
	Objectives    []Objective            `json:"objectives"`
}

type Objective struct {
	Gamemode  scouting.Gamemode `json:"gamemode"`
	Objective string            `json:"objective"`
	Count     int               `json:"count"`
}

// Lineup is the six team numbers playing one qualification match.
type Lineup struct {
	MatchNumber int `json:"matchNumber"`
	Red1        int `json:"red1"`
	Red2        int `json:"red2"`
	Red3        int `json:"red3"`
	Blue1       int `json:"blue1"`
	Blue2       int `json:"blue2"`
	Blue3       int `json:"blue3"`
}

func (l Lineup) Red() []string {
	return teams(l.Red1, l.Red2, l.Red3)
}

func (l Lineup) Blue() []string {
	return teams(l.Blue1, l.Blue2, l.Blue3)
}

func teams(numbers ...int) []string {
	out := make([]string, len(numbers))
	for i, n := range numbers {
		out[i] = strconv.Itoa(n)
	}
	return out
}
