package scouting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// flexInt decodes numbers written either as JSON numbers or numeric strings.
// The match-number dropdown and free-text inputs vend different types.
type flexInt struct {
	value   int
	coerced bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.value, f.coerced = 0, true
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			n = 0
		}
		f.value, f.coerced = n, true
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	f.value = int(math.Trunc(n))
	f.coerced = float64(f.value) != n
	return nil
}

// flexString decodes strings, numbers and booleans into their string form.
type flexString struct {
	value   string
	coerced bool
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		f.value, f.coerced = "", true
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &f.value)
	default:
		f.value, f.coerced = string(data), true
	}
	return nil
}

type legacyRecord struct {
	SchemaVersion       int        `json:"schemaVersion"`
	MatchNumber         flexInt    `json:"matchNumber"`
	RobotNumber         flexString `json:"robotNumber"`
	AllianceColor       string     `json:"allianceColor"`
	LeftCounter         flexInt    `json:"leftCounter"`
	RightCounter        flexInt    `json:"rightCounter"`
	LeftBumpCounter     flexInt    `json:"leftBumpCounter"`
	RightBumpCounter    flexInt    `json:"rightBumpCounter"`
	LeaveValue          flexString `json:"leaveValue"`
	AccuracyValue       flexInt    `json:"accuracyValue"`
	EstimateSizeAuto    string     `json:"estimateSizeAuto"`
	LeaveValueTeleop    flexString `json:"leaveValueTeleop"`
	AccuracyValueTeleop flexInt    `json:"accuracyValueTeleop"`
	EstimateSize        string     `json:"estimateSize"`
	AutoCycles          *[]Cycle   `json:"autoCycles"`
	Cycles              []Cycle    `json:"cycles"`
	Timestamp           int64      `json:"timestamp"`
	Submitted           bool       `json:"submitted"`
	Rejections          int        `json:"rejections"`
	LastError           string     `json:"lastError"`
}

// Migrate decodes a stored record of any schema generation and upgrades it to
// CurrentSchemaVersion. The boolean reports whether the stored form differs
// from the upgraded one and should be written back.
func Migrate(raw json.RawMessage) (Record, bool, error) {
	var l legacyRecord
	if err := json.Unmarshal(raw, &l); err != nil {
		return Record{}, false, fmt.Errorf("failed to decode stored match: %w", err)
	}

	rec := Record{
		SchemaVersion:      CurrentSchemaVersion,
		MatchNumber:        l.MatchNumber.value,
		RobotNumber:        strings.TrimSpace(l.RobotNumber.value),
		AllianceColor:      ParseAllianceColor(l.AllianceColor),
		LeftTrench:         l.LeftCounter.value,
		RightTrench:        l.RightCounter.value,
		LeftBump:           l.LeftBumpCounter.value,
		RightBump:          l.RightBumpCounter.value,
		AutoClimb:          ParseClimbLevel(l.LeaveValue.value),
		AutoAccuracy:       l.AccuracyValue.value,
		AutoEstimateSize:   SizeBucket(l.EstimateSizeAuto),
		TeleopClimb:        ParseClimbLevel(l.LeaveValueTeleop.value),
		TeleopAccuracy:     l.AccuracyValueTeleop.value,
		TeleopEstimateSize: SizeBucket(l.EstimateSize),
		Cycles:             l.Cycles,
		Timestamp:          l.Timestamp,
		Submitted:          l.Submitted,
		Rejections:         l.Rejections,
		LastError:          l.LastError,
	}
	if l.AutoCycles != nil {
		rec.AutoCycles = *l.AutoCycles
	}
	if rec.AutoCycles == nil {
		rec.AutoCycles = []Cycle{}
	}
	if rec.Cycles == nil {
		rec.Cycles = []Cycle{}
	}

	changed := l.SchemaVersion != CurrentSchemaVersion ||
		l.AutoCycles == nil || l.Cycles == nil ||
		l.MatchNumber.coerced || l.RobotNumber.coerced ||
		rec.RobotNumber != l.RobotNumber.value ||
		string(rec.AllianceColor) != l.AllianceColor ||
		string(rec.AutoClimb) != l.LeaveValue.value ||
		string(rec.TeleopClimb) != l.LeaveValueTeleop.value

	return rec, changed, nil
}
