package main

import (
	"errors"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gearitforward/gearscout-sync/internal/config"
	"github.com/gearitforward/gearscout-sync/internal/database"
	"github.com/gearitforward/gearscout-sync/internal/queue"
	"github.com/gearitforward/gearscout-sync/internal/scouting"
	"github.com/gearitforward/gearscout-sync/internal/storage"
	"github.com/spf13/cobra"
)

var (
	numMatches int
	identity   scouting.Identity
	seed       int64
)

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Fill the local match queue with random scouted matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().IntVar(&numMatches, "matches", 40, "Number of matches to queue")
	rootCmd.Flags().StringVar(&identity.TeamNumber, "team", "4060", "Scouting team number")
	rootCmd.Flags().StringVar(&identity.ScouterName, "scouter", "Seeder", "Scouter name")
	rootCmd.Flags().StringVar(&identity.EventCode, "event", "TEST", "Event code")
	rootCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	log.Info("Starting queue seeder...")
	cfg := config.Load()

	db, teardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	q := queue.New(storage.NewDurable(db, cfg.StorageQuotaBytes))
	rng := rand.New(rand.NewSource(seed))

	startTime := time.Now()
	for i := 1; i <= numMatches; i++ {
		rec := randomRecord(rng, i)
		if err := q.Save(identity, rec); err != nil {
			if errors.Is(err, storage.ErrQuotaExceeded) {
				log.Warn("Storage full, stopping early", "queued", i-1)
				break
			}
			return err
		}
	}

	log.Info("Successfully queued matches.", "pending", len(q.Pending(identity)), "duration", time.Since(startTime))
	return nil
}

func randomRecord(rng *rand.Rand, match int) scouting.Record {
	colors := []scouting.AllianceColor{scouting.AllianceRed, scouting.AllianceBlue}
	climbs := []scouting.ClimbLevel{scouting.ClimbNone, scouting.ClimbL1, scouting.ClimbL2, scouting.ClimbL3}

	cycles := func(n int) []scouting.Cycle {
		out := make([]scouting.Cycle, n)
		for i := range out {
			out[i] = scouting.Cycle{
				Accuracy:     scouting.AccuracyValues[rng.Intn(len(scouting.AccuracyValues))],
				EstimateSize: scouting.SizeBuckets[rng.Intn(len(scouting.SizeBuckets))],
			}
		}
		return out
	}

	return scouting.Record{
		MatchNumber:   match,
		RobotNumber:   strconv.Itoa(1 + rng.Intn(9999)),
		AllianceColor: colors[rng.Intn(len(colors))],
		LeftTrench:    rng.Intn(4),
		RightTrench:   rng.Intn(4),
		LeftBump:      rng.Intn(3),
		RightBump:     rng.Intn(3),
		AutoClimb:     climbs[rng.Intn(2)],
		TeleopClimb:   climbs[rng.Intn(len(climbs))],
		AutoCycles:    cycles(rng.Intn(3)),
		Cycles:        cycles(2 + rng.Intn(6)),
	}
}
