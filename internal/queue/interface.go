package queue

import "github.com/gearitforward/gearscout-sync/internal/scouting"

// Queue is the repository for scouted matches that have not reached the
// server yet. Every method takes the identity explicitly; a queue stored
// under another scouter/team/event triple is never visible.
type Queue interface {
	// Load returns the store for id, or a fresh empty one if storage is
	// absent, corrupt, or namespaced to a different identity.
	Load(id scouting.Identity) MultiMatchStore
	// Save upserts by (matchNumber, robotNumber). Last write wins and the
	// record goes back to pending.
	Save(id scouting.Identity, record scouting.Record) error
	// Pending returns records not yet submitted, in store order.
	Pending(id scouting.Identity) []scouting.Record
	// Clean removes invalid records and returns how many were removed.
	Clean(id scouting.Identity) int
	MarkSubmitted(id scouting.Identity, keys []scouting.Key) error
	ClearSubmitted(id scouting.Identity) (int, error)
	RecordRejection(id scouting.Identity, key scouting.Key, reason string) (scouting.Record, error)
	DeadLettered(id scouting.Identity, maxRejections int) []scouting.Record
}
