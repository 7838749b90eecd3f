package submission

import (
	"math"
	"strconv"

	"github.com/gearitforward/gearscout-sync/internal/gearscout"
	"github.com/gearitforward/gearscout-sync/internal/scouting"
)

// ToWire flattens a stored record into the API's objective list.
func ToWire(id scouting.Identity, rec scouting.Record, gameYear int) gearscout.Match {
	objectives := []gearscout.Objective{
		{Gamemode: scouting.GamemodeAlliance, Objective: string(rec.AllianceColor), Count: 0},

		{Gamemode: scouting.GamemodeAuto, Objective: "red-trench", Count: rec.LeftTrench},
		{Gamemode: scouting.GamemodeAuto, Objective: "blue-trench", Count: rec.RightTrench},
		{Gamemode: scouting.GamemodeAuto, Objective: "red-bump", Count: rec.LeftBump},
		{Gamemode: scouting.GamemodeAuto, Objective: "blue-bump", Count: rec.RightBump},
		{Gamemode: scouting.GamemodeAuto, Objective: "climb-" + string(rec.AutoClimb), Count: 1},
		{Gamemode: scouting.GamemodeAuto, Objective: "accuracy", Count: averageAccuracy(rec.AutoCycles, rec.AutoAccuracy)},
	}
	objectives = append(objectives, sizeObjectives(scouting.GamemodeAuto, rec.AutoCycles, rec.AutoEstimateSize)...)

	objectives = append(objectives,
		gearscout.Objective{Gamemode: scouting.GamemodeTeleop, Objective: "climb-" + string(rec.TeleopClimb), Count: 1},
		gearscout.Objective{Gamemode: scouting.GamemodeTeleop, Objective: "accuracy", Count: averageAccuracy(rec.Cycles, rec.TeleopAccuracy)},
	)
	objectives = append(objectives, sizeObjectives(scouting.GamemodeTeleop, rec.Cycles, rec.TeleopEstimateSize)...)

	return gearscout.Match{
		GameYear:      gameYear,
		EventCode:     id.EventCode,
		MatchNumber:   strconv.Itoa(rec.MatchNumber),
		RobotNumber:   rec.RobotNumber,
		Creator:       id.ScouterName,
		AllianceColor: rec.AllianceColor,
		AutoClimb:     string(rec.AutoClimb),
		TeleopClimb:   string(rec.TeleopClimb),
		Objectives:    objectives,
	}
}

// averageAccuracy averages every completed cycle plus the in-progress value
// when one was entered, rounding half up.
func averageAccuracy(cycles []scouting.Cycle, inProgress int) int {
	total, count := 0, len(cycles)
	for _, c := range cycles {
		total += c.Accuracy
	}
	if inProgress > 0 {
		total += inProgress
		count++
	}
	if count == 0 {
		return 0
	}
	return int(math.Floor(float64(total)/float64(count) + 0.5))
}

// sizeObjectives emits one count per bucket, always in bucket order.
func sizeObjectives(mode scouting.Gamemode, cycles []scouting.Cycle, inProgress scouting.SizeBucket) []gearscout.Objective {
	counts := make(map[scouting.SizeBucket]int, len(scouting.SizeBuckets))
	for _, c := range cycles {
		if c.EstimateSize.Valid() {
			counts[c.EstimateSize]++
		}
	}
	if inProgress.Valid() {
		counts[inProgress]++
	}

	out := make([]gearscout.Objective, 0, len(scouting.SizeBuckets))
	for _, b := range scouting.SizeBuckets {
		out = append(out, gearscout.Objective{Gamemode: mode, Objective: "estimate-size-" + string(b), Count: counts[b]})
	}
	return out
}
