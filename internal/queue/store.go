package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gearitforward/gearscout-sync/internal/scouting"
	"github.com/gearitforward/gearscout-sync/internal/storage"
	"github.com/samber/lo"
)

// maxWriteAttempts bounds the read-modify-CAS loop when another writer
// (a second page or process) keeps winning the race.
const maxWriteAttempts = 5

// New creates a Queue persisted in kv under the multiMatchData key.
func New(kv storage.VersionedStore) Queue {
	return &store{kv: kv, key: storage.KeyMultiMatchData}
}

var _ Queue = (*store)(nil)

func emptyStore(id scouting.Identity) MultiMatchStore {
	return MultiMatchStore{
		ScouterName: id.ScouterName,
		TeamNumber:  id.TeamNumber,
		EventCode:   id.EventCode,
		Matches:     []scouting.Record{},
	}
}

// read loads the queue for id together with the version it was read at. The
// boolean reports whether migration changed anything that should be written
// back.
func (s *store) read(id scouting.Identity) (MultiMatchStore, int64, bool) {
	v, err := s.kv.GetVersioned(s.key)
	if err != nil {
		log.Error("Error reading multi-match storage", "error", err)
		return emptyStore(id), 0, false
	}
	if !v.Found {
		return emptyStore(id), 0, false
	}

	var raw storedQueue
	if err := json.Unmarshal([]byte(v.Value), &raw); err != nil {
		log.Error("Error reading multi-match storage, starting a new queue", "error", err)
		return emptyStore(id), v.Version, false
	}

	q := MultiMatchStore{ScouterName: raw.ScouterName, TeamNumber: raw.TeamNumber, EventCode: raw.EventCode}
	if q.namespace() != id.Namespace() {
		log.Debug("Stored queue belongs to another identity, starting a new queue",
			"stored_scouter", raw.ScouterName, "stored_team", raw.TeamNumber, "stored_event", raw.EventCode)
		return emptyStore(id), v.Version, false
	}

	migrated := false
	q.Matches = make([]scouting.Record, 0, len(raw.Matches))
	for i, m := range raw.Matches {
		rec, changed, err := scouting.Migrate(m)
		if err != nil {
			log.Error("Dropping unreadable stored match", "index", i, "error", err)
			migrated = true
			continue
		}
		migrated = migrated || changed
		q.Matches = append(q.Matches, rec)
	}
	return q, v.Version, migrated
}

// update runs a read-modify-write cycle. fn may be called more than once if a
// concurrent writer wins the compare-and-swap, so it must only depend on the
// store it is given.
func (s *store) update(id scouting.Identity, fn func(q *MultiMatchStore) bool) error {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		q, version, migrated := s.read(id)
		changed := fn(&q)
		if !changed && !migrated {
			return nil
		}

		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("failed to encode queue: %w", err)
		}
		_, err = s.kv.CompareAndSwap(s.key, string(data), version)
		if errors.Is(err, storage.ErrVersionConflict) {
			log.Warn("Queue was modified concurrently, retrying write", "attempt", attempt)
			continue
		}
		if err != nil {
			return err
		}
		log.Debug("Persisted queue", "matches", len(q.Matches), "version", version+1)
		return nil
	}
	return fmt.Errorf("failed to persist queue after %d attempts: %w", maxWriteAttempts, storage.ErrVersionConflict)
}

func (s *store) Load(id scouting.Identity) MultiMatchStore {
	var loaded MultiMatchStore
	err := s.update(id, func(q *MultiMatchStore) bool {
		loaded = *q
		return false
	})
	if err != nil {
		log.Warn("Failed to persist migrated queue", "error", err)
	}
	return loaded
}

func (s *store) Save(id scouting.Identity, record scouting.Record) error {
	rec := normalize(record)
	key := rec.Key()

	var total int
	err := s.update(id, func(q *MultiMatchStore) bool {
		idx := lo.IndexOf(lo.Map(q.Matches, func(m scouting.Record, _ int) scouting.Key { return m.Key() }), key)
		if idx >= 0 {
			q.Matches[idx] = rec
			log.Info("Updated match in queue", "match", key.MatchNumber, "robot", key.RobotNumber)
		} else {
			q.Matches = append(q.Matches, rec)
			log.Info("Added match to queue", "match", key.MatchNumber, "robot", key.RobotNumber)
		}
		total = len(q.Matches)
		return true
	})
	if err != nil {
		log.Error("Error saving match to storage", "match", key.MatchNumber, "robot", key.RobotNumber, "error", err)
		return fmt.Errorf("failed to save match %s: %w", key, err)
	}
	log.Debug("Queue size", "matches", total)
	return nil
}

// normalize prepares a record coming from the form for storage.
func normalize(r scouting.Record) scouting.Record {
	r.SchemaVersion = scouting.CurrentSchemaVersion
	r.RobotNumber = strings.TrimSpace(r.RobotNumber)
	r.AllianceColor = scouting.ParseAllianceColor(string(r.AllianceColor))
	r.AutoClimb = scouting.ParseClimbLevel(string(r.AutoClimb))
	r.TeleopClimb = scouting.ParseClimbLevel(string(r.TeleopClimb))
	if r.AutoCycles == nil {
		r.AutoCycles = []scouting.Cycle{}
	}
	if r.Cycles == nil {
		r.Cycles = []scouting.Cycle{}
	}
	r.Timestamp = time.Now().UnixMilli()
	r.Submitted = false
	r.Rejections = 0
	r.LastError = ""
	return r
}

func (s *store) Pending(id scouting.Identity) []scouting.Record {
	return lo.Filter(s.Load(id).Matches, func(m scouting.Record, _ int) bool {
		return !m.Submitted
	})
}

func (s *store) Clean(id scouting.Identity) int {
	var removed int
	err := s.update(id, func(q *MultiMatchStore) bool {
		valid := lo.Filter(q.Matches, func(m scouting.Record, _ int) bool { return m.Valid() })
		removed = len(q.Matches) - len(valid)
		q.Matches = valid
		return removed > 0
	})
	if err != nil {
		log.Error("Error cleaning invalid matches", "error", err)
		return 0
	}
	if removed > 0 {
		log.Info("Cleaned invalid matches from storage", "removed", removed)
	}
	return removed
}

func (s *store) MarkSubmitted(id scouting.Identity, keys []scouting.Key) error {
	if len(keys) == 0 {
		return nil
	}
	return s.update(id, func(q *MultiMatchStore) bool {
		changed := false
		for i := range q.Matches {
			if !q.Matches[i].Submitted && lo.Contains(keys, q.Matches[i].Key()) {
				q.Matches[i].Submitted = true
				changed = true
			}
		}
		return changed
	})
}

func (s *store) ClearSubmitted(id scouting.Identity) (int, error) {
	var cleared int
	err := s.update(id, func(q *MultiMatchStore) bool {
		remaining := lo.Reject(q.Matches, func(m scouting.Record, _ int) bool { return m.Submitted })
		cleared = len(q.Matches) - len(remaining)
		q.Matches = remaining
		return cleared > 0
	})
	return cleared, err
}

func (s *store) RecordRejection(id scouting.Identity, key scouting.Key, reason string) (scouting.Record, error) {
	var updated scouting.Record
	found := false
	err := s.update(id, func(q *MultiMatchStore) bool {
		found = false
		for i := range q.Matches {
			if !q.Matches[i].Submitted && q.Matches[i].Key() == key {
				q.Matches[i].Rejections++
				q.Matches[i].LastError = reason
				updated = q.Matches[i]
				found = true
				return true
			}
		}
		return false
	})
	if err != nil {
		return scouting.Record{}, err
	}
	if !found {
		return scouting.Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return updated, nil
}

func (s *store) DeadLettered(id scouting.Identity, maxRejections int) []scouting.Record {
	return lo.Filter(s.Pending(id), func(m scouting.Record, _ int) bool {
		return m.Rejections >= maxRejections
	})
}
