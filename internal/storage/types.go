package storage

import "errors"

var (
	// ErrQuotaExceeded is the only storage error surfaced to the user.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrVersionConflict means another writer updated the key since it was read.
	ErrVersionConflict = errors.New("storage version conflict")
)

// Versioned is a value together with the version it was read at.
type Versioned struct {
	Value   string
	Version int64
	Found   bool
}

// Durable scope keys.
const (
	KeyMultiMatchData = "multiMatchData"
)

// Session scope keys.
const (
	KeyCurrentUser = "currentUser"
	KeyTeamNumber  = "teamNumber"
	KeyScouterName = "scouterName"
	KeyEventCode   = "eventCode"
	KeySecretCode  = "secretCode"
	KeyTBACode     = "tbaCode"
	KeySchedule    = "schedule"
)
