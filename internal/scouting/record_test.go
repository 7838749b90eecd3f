package scouting

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValid(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   bool
	}{
		{"valid", Record{MatchNumber: 12, RobotNumber: "254"}, true},
		{"zero match", Record{MatchNumber: 0, RobotNumber: "254"}, false},
		{"negative match", Record{MatchNumber: -3, RobotNumber: "254"}, false},
		{"empty robot", Record{MatchNumber: 4, RobotNumber: ""}, false},
		{"blank robot", Record{MatchNumber: 4, RobotNumber: "   "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Valid())
		})
	}
}

func TestRecordValidate(t *testing.T) {
	base := func() Record {
		return Record{
			MatchNumber:      12,
			RobotNumber:      "254",
			AutoAccuracy:     95,
			AutoEstimateSize: SizeSmall,
			Cycles:           []Cycle{{Accuracy: 50, EstimateSize: SizeLarge}},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Record)
		want   error
	}{
		{"within limits", func(r *Record) {}, nil},
		{"blank sizes allowed", func(r *Record) { r.AutoEstimateSize = "" }, nil},
		{"highest match", func(r *Record) { r.MatchNumber = MaxMatchNumber }, nil},
		{"match over limit", func(r *Record) { r.MatchNumber = MaxMatchNumber + 1 }, ErrMatchNumber},
		{"zero match", func(r *Record) { r.MatchNumber = 0 }, ErrMatchNumber},
		{"robot with letters", func(r *Record) { r.RobotNumber = "254B" }, ErrRobotNumber},
		{"robot over limit", func(r *Record) { r.RobotNumber = "100000" }, ErrRobotNumber},
		{"auto accuracy", func(r *Record) { r.AutoAccuracy = 90 }, ErrAccuracy},
		{"teleop accuracy", func(r *Record) { r.TeleopAccuracy = -25 }, ErrAccuracy},
		{"teleop size", func(r *Record) { r.TeleopEstimateSize = "lots" }, ErrEstimateSize},
		{"auto cycle accuracy", func(r *Record) { r.AutoCycles = []Cycle{{Accuracy: 1}} }, ErrAccuracy},
		{"cycle size", func(r *Record) { r.Cycles[0].EstimateSize = "0" }, ErrEstimateSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base()
			tt.mutate(&rec)
			err := rec.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIdentityValidTeamNumber(t *testing.T) {
	assert.True(t, Identity{TeamNumber: "4060"}.ValidTeamNumber())
	assert.True(t, Identity{TeamNumber: "0"}.ValidTeamNumber())
	assert.False(t, Identity{TeamNumber: "frc4060"}.ValidTeamNumber())
	assert.False(t, Identity{TeamNumber: "-1"}.ValidTeamNumber())
	assert.False(t, Identity{TeamNumber: "100000"}.ValidTeamNumber())
}

func TestRecordKeyTrimsRobot(t *testing.T) {
	a := Record{MatchNumber: 3, RobotNumber: " 1678 "}
	b := Record{MatchNumber: 3, RobotNumber: "1678"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "3-1678", a.Key().String())
}

func TestMigrate_LegacyBooleanSchema(t *testing.T) {
	raw := json.RawMessage(`{
		"matchNumber": "7",
		"robotNumber": 971,
		"allianceColor": "red",
		"leftCounter": 2,
		"rightCounter": 1,
		"leftBumpCounter": 0,
		"rightBumpCounter": 3,
		"leaveValue": true,
		"accuracyValue": 50,
		"estimateSizeAuto": "1-10",
		"leaveValueTeleop": false,
		"accuracyValueTeleop": 75,
		"cycles": [{"accuracy": 100, "estimateSize": "26+"}],
		"timestamp": 1700000000000
	}`)

	rec, changed, err := Migrate(raw)
	require.NoError(t, err)
	assert.True(t, changed)

	assert.Equal(t, CurrentSchemaVersion, rec.SchemaVersion)
	assert.Equal(t, 7, rec.MatchNumber)
	assert.Equal(t, "971", rec.RobotNumber)
	assert.Equal(t, AllianceRed, rec.AllianceColor)
	assert.Equal(t, ClimbL1, rec.AutoClimb)
	assert.Equal(t, ClimbNone, rec.TeleopClimb)
	assert.Equal(t, []Cycle{}, rec.AutoCycles)
	require.Len(t, rec.Cycles, 1)
	assert.Equal(t, SizeLarge, rec.Cycles[0].EstimateSize)
	assert.False(t, rec.Submitted)
}

func TestMigrate_CurrentSchemaUnchanged(t *testing.T) {
	orig := Record{
		SchemaVersion: CurrentSchemaVersion,
		MatchNumber:   1,
		RobotNumber:   "118",
		AllianceColor: AllianceBlue,
		AutoClimb:     ClimbNone,
		TeleopClimb:   ClimbL3,
		AutoCycles:    []Cycle{{Accuracy: 25, EstimateSize: SizeSmall}},
		Cycles:        []Cycle{},
		Timestamp:     42,
	}
	raw, err := json.Marshal(orig)
	require.NoError(t, err)

	rec, changed, err := Migrate(raw)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, orig, rec)
}

func TestMigrate_RejectsGarbage(t *testing.T) {
	_, _, err := Migrate(json.RawMessage(`{"matchNumber": [1,2]}`))
	assert.Error(t, err)
}

func TestParseEnums(t *testing.T) {
	assert.Equal(t, AllianceBlue, ParseAllianceColor(" blue "))
	assert.Equal(t, AllianceUnknown, ParseAllianceColor("green"))
	assert.Equal(t, ClimbL2, ParseClimbLevel("L2"))
	assert.Equal(t, ClimbNone, ParseClimbLevel(""))
	assert.True(t, SizeMedium.Valid())
	assert.False(t, SizeBucket("5").Valid())
	assert.True(t, ValidAccuracy(95))
	assert.False(t, ValidAccuracy(90))
}

func TestIdentity(t *testing.T) {
	id := Identity{TeamNumber: "6238", ScouterName: "ada", EventCode: "casj", SecretCode: "s3"}
	assert.True(t, id.Valid())
	assert.Equal(t, Namespace{ScouterName: "ada", TeamNumber: "6238", EventCode: "casj"}, id.Namespace())

	id.EventCode = " "
	assert.False(t, id.Valid())
}
