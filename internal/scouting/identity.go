package scouting

import "strings"

// Identity is the (team, scouter, event, secret) tuple of whoever is scouting.
// It authenticates submissions and namespaces the local queue.
type Identity struct {
	TeamNumber  string `json:"teamNumber"`
	ScouterName string `json:"scouterName"`
	SecretCode  string `json:"secretCode"`
	EventCode   string `json:"eventCode"`
}

// Namespace is the part of an identity the local queue is keyed on.
type Namespace struct {
	ScouterName string
	TeamNumber  string
	EventCode   string
}

func (i Identity) Namespace() Namespace {
	return Namespace{ScouterName: i.ScouterName, TeamNumber: i.TeamNumber, EventCode: i.EventCode}
}

// ValidTeamNumber reports whether the team number is a number within the
// form limits.
func (i Identity) ValidTeamNumber() bool {
	_, ok := SanitizeNumeric(i.TeamNumber, MinTeamNumber, MaxTeamNumber)
	return ok
}

// Valid reports whether the identity carries everything needed to own a queue.
func (i Identity) Valid() bool {
	return strings.TrimSpace(i.TeamNumber) != "" &&
		strings.TrimSpace(i.ScouterName) != "" &&
		strings.TrimSpace(i.EventCode) != ""
}
