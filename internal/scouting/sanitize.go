package scouting

import (
	"regexp"
	"strconv"
	"strings"
)

// Input limits enforced by the form.
const (
	MaxTeamNumber        = 99999
	MinTeamNumber        = 0
	MaxMatchNumber       = 999
	MinMatchNumber       = 0
	MaxScouterNameLength = 32
	MaxEventCodeLength   = 32
	MaxSecretCodeLength  = 32
	MaxTBACodeLength     = 6
)

var (
	markupChars  = regexp.MustCompile(`[<>]`)
	controlChars = regexp.MustCompile(`[\x00-\x1F\x7F-\x9F]`)
	nonAlnum     = regexp.MustCompile(`[^a-z0-9]`)
)

// SanitizeInput trims whitespace and strips markup and control characters.
func SanitizeInput(input string) string {
	s := strings.TrimSpace(input)
	s = markupChars.ReplaceAllString(s, "")
	return controlChars.ReplaceAllString(s, "")
}

// SanitizeNumeric parses a base-10 integer within [min, max].
func SanitizeNumeric(input string, min, max int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}

// SanitizeEventCode lowercases and keeps only ASCII letters and digits.
func SanitizeEventCode(input string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(input)), "")
}

// Sanitize returns a copy of the identity with every field cleaned and
// truncated to the form limits.
func (i Identity) Sanitize() Identity {
	return Identity{
		TeamNumber:  truncate(SanitizeInput(i.TeamNumber), len(strconv.Itoa(MaxTeamNumber))),
		ScouterName: truncate(SanitizeInput(i.ScouterName), MaxScouterNameLength),
		SecretCode:  truncate(SanitizeInput(i.SecretCode), MaxSecretCodeLength),
		EventCode:   truncate(SanitizeInput(i.EventCode), MaxEventCodeLength),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
