package storage

import (
	"github.com/gearitforward/gearscout-sync/internal/scouting"
)

// SaveIdentity stores the logged-in identity in the session scope, both as a
// single JSON document and as the individual code keys the UI reads.
func SaveIdentity(s Store, id scouting.Identity) error {
	if err := SetJSON(s, KeyCurrentUser, id); err != nil {
		return err
	}
	SetString(s, KeyTeamNumber, id.TeamNumber)
	SetString(s, KeyScouterName, id.ScouterName)
	SetString(s, KeyEventCode, id.EventCode)
	SetString(s, KeySecretCode, id.SecretCode)
	return nil
}

// LoadIdentity returns the session identity. Corrupt or incomplete data is
// reported as not found.
func LoadIdentity(s Store) (scouting.Identity, bool) {
	id := GetJSON(s, KeyCurrentUser, scouting.Identity{})
	if !id.Valid() {
		return scouting.Identity{}, false
	}
	return id, true
}

// ClearIdentity logs the current scouter out.
func ClearIdentity(s Store) {
	for _, key := range []string{KeyCurrentUser, KeyTeamNumber, KeyScouterName, KeyEventCode, KeySecretCode, KeyTBACode} {
		Remove(s, key)
	}
}
