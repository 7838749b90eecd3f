package gearscout

import (
	"context"

	"github.com/gearitforward/gearscout-sync/internal/scouting"
)

// Client defines the interface for interacting with the GearScout API.
// This allows for mock implementations to be used in tests.
type Client interface {
	SubmitMatch(ctx context.Context, id scouting.Identity, match Match) error
	GetEventSchedule(ctx context.Context, gameYear int, tbaCode string) ([]Lineup, error)
}
