package submission

import (
	"context"

	"github.com/gearitforward/gearscout-sync/internal/scouting"
)

// Submitter drains an identity's queue to the server.
type Submitter interface {
	SubmitAll(ctx context.Context, id scouting.Identity, dryRun bool) Summary
}
