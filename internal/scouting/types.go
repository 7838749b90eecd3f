package scouting

import "strings"

// AllianceColor is the alliance a scouted robot played on.
type AllianceColor string

const (
	AllianceRed     AllianceColor = "RED"
	AllianceBlue    AllianceColor = "BLUE"
	AllianceUnknown AllianceColor = "UNKNOWN"
)

// ParseAllianceColor is case-insensitive; anything unrecognized is UNKNOWN.
func ParseAllianceColor(s string) AllianceColor {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(AllianceRed):
		return AllianceRed
	case string(AllianceBlue):
		return AllianceBlue
	default:
		return AllianceUnknown
	}
}

// ClimbLevel is the end state of a climb attempt.
type ClimbLevel string

const (
	ClimbNone ClimbLevel = "none"
	ClimbL1   ClimbLevel = "l1"
	ClimbL2   ClimbLevel = "l2"
	ClimbL3   ClimbLevel = "l3"
)

// ParseClimbLevel accepts the enum values and the legacy boolean
// "did/did not leave" spellings.
func ParseClimbLevel(s string) ClimbLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l1", "true", "yes", "left":
		return ClimbL1
	case "l2":
		return ClimbL2
	case "l3":
		return ClimbL3
	default:
		return ClimbNone
	}
}

// SizeBucket is the estimated number of game pieces moved in a cycle.
type SizeBucket string

const (
	SizeSmall  SizeBucket = "1-10"
	SizeMedium SizeBucket = "11-25"
	SizeLarge  SizeBucket = "26+"
)

// SizeBuckets lists the buckets in wire order.
var SizeBuckets = []SizeBucket{SizeSmall, SizeMedium, SizeLarge}

func (b SizeBucket) Valid() bool {
	switch b {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// AccuracyValues are the percentages the form offers.
var AccuracyValues = []int{0, 25, 50, 75, 95, 100}

func ValidAccuracy(v int) bool {
	for _, a := range AccuracyValues {
		if a == v {
			return true
		}
	}
	return false
}

// Gamemode groups wire objectives by match phase.
type Gamemode string

const (
	GamemodeAlliance Gamemode = "ALLIANCE"
	GamemodeAuto     Gamemode = "AUTO"
	GamemodeTeleop   Gamemode = "TELEOP"
)

// Cycle is one discrete scoring action logged during a match phase.
type Cycle struct {
	Accuracy     int        `json:"accuracy"`
	EstimateSize SizeBucket `json:"estimateSize"`
}
