package queue

import (
	"encoding/json"
	"errors"

	"github.com/gearitforward/gearscout-sync/internal/scouting"
	"github.com/gearitforward/gearscout-sync/internal/storage"
)

var ErrNotFound = errors.New("match not found in queue")

// MultiMatchStore is the whole queue for one scouter/team/event triple. It is
// always read and written as a single document.
type MultiMatchStore struct {
	ScouterName string            `json:"scouterName"`
	TeamNumber  string            `json:"teamNumber"`
	EventCode   string            `json:"eventCode"`
	Matches     []scouting.Record `json:"matches"`
}

func (q MultiMatchStore) namespace() scouting.Namespace {
	return scouting.Namespace{ScouterName: q.ScouterName, TeamNumber: q.TeamNumber, EventCode: q.EventCode}
}

// storedQueue defers record decoding so each record can be migrated.
type storedQueue struct {
	ScouterName string            `json:"scouterName"`
	TeamNumber  string            `json:"teamNumber"`
	EventCode   string            `json:"eventCode"`
	Matches     []json.RawMessage `json:"matches"`
}

// store implements Queue on a single durable key.
type store struct {
	kv  storage.VersionedStore
	key string
}
