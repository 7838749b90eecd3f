package scouting

import (
	"errors"
	"fmt"
	"strings"
)

// CurrentSchemaVersion is stamped on every record written by this build.
// Version 1 had a boolean leave value and a single cycle list.
const CurrentSchemaVersion = 2

// Record is one scouted match, queued locally until submitted.
type Record struct {
	SchemaVersion int           `json:"schemaVersion"`
	MatchNumber   int           `json:"matchNumber"`
	RobotNumber   string        `json:"robotNumber"`
	AllianceColor AllianceColor `json:"allianceColor"`

	LeftTrench  int `json:"leftCounter"`
	RightTrench int `json:"rightCounter"`
	LeftBump    int `json:"leftBumpCounter"`
	RightBump   int `json:"rightBumpCounter"`

	AutoClimb          ClimbLevel `json:"leaveValue"`
	AutoAccuracy       int        `json:"accuracyValue"`
	AutoEstimateSize   SizeBucket `json:"estimateSizeAuto"`
	TeleopClimb        ClimbLevel `json:"leaveValueTeleop"`
	TeleopAccuracy     int        `json:"accuracyValueTeleop"`
	TeleopEstimateSize SizeBucket `json:"estimateSize,omitempty"`

	AutoCycles []Cycle `json:"autoCycles"`
	Cycles     []Cycle `json:"cycles"`

	Timestamp int64 `json:"timestamp"`
	Submitted bool  `json:"submitted"`

	// Rejections counts 400 responses for this exact payload.
	Rejections int    `json:"rejections,omitempty"`
	LastError  string `json:"lastError,omitempty"`
}

// Key identifies a record for upsert and dedup purposes.
type Key struct {
	MatchNumber int
	RobotNumber string
}

func (k Key) String() string {
	return fmt.Sprintf("%d-%s", k.MatchNumber, k.RobotNumber)
}

func (r Record) Key() Key {
	return Key{MatchNumber: r.MatchNumber, RobotNumber: strings.TrimSpace(r.RobotNumber)}
}

// Valid reports whether the record may be submitted.
func (r Record) Valid() bool {
	return r.MatchNumber > 0 && strings.TrimSpace(r.RobotNumber) != ""
}

var (
	ErrMatchNumber  = fmt.Errorf("match number must be between 1 and %d", MaxMatchNumber)
	ErrRobotNumber  = fmt.Errorf("robot number must be a team number between %d and %d", MinTeamNumber, MaxTeamNumber)
	ErrAccuracy     = errors.New("accuracy must be one of 0, 25, 50, 75, 95 or 100")
	ErrEstimateSize = errors.New("estimate size must be 1-10, 11-25 or 26+")
)

// Validate checks a record against the form limits. Blank estimate sizes
// are allowed since the form leaves them unset until a cycle is logged.
func (r Record) Validate() error {
	if r.MatchNumber <= MinMatchNumber || r.MatchNumber > MaxMatchNumber {
		return ErrMatchNumber
	}
	if _, ok := SanitizeNumeric(r.RobotNumber, MinTeamNumber, MaxTeamNumber); !ok {
		return ErrRobotNumber
	}
	if !ValidAccuracy(r.AutoAccuracy) || !ValidAccuracy(r.TeleopAccuracy) {
		return ErrAccuracy
	}
	if !validSize(r.AutoEstimateSize) || !validSize(r.TeleopEstimateSize) {
		return ErrEstimateSize
	}
	for _, c := range append(append([]Cycle{}, r.AutoCycles...), r.Cycles...) {
		if !ValidAccuracy(c.Accuracy) {
			return fmt.Errorf("cycle: %w", ErrAccuracy)
		}
		if !validSize(c.EstimateSize) {
			return fmt.Errorf("cycle: %w", ErrEstimateSize)
		}
	}
	return nil
}

func validSize(b SizeBucket) bool {
	return b == "" || b.Valid()
}
