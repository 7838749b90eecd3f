package scouting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "scriptalert", SanitizeInput("  <script>alert</script>  ")[:11])
	assert.Equal(t, "abc", SanitizeInput("a\x00b\x1fc"))
}

func TestSanitizeNumeric(t *testing.T) {
	n, ok := SanitizeNumeric(" 42 ", MinMatchNumber, MaxMatchNumber)
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = SanitizeNumeric("1000", MinMatchNumber, MaxMatchNumber)
	assert.False(t, ok)

	_, ok = SanitizeNumeric("abc", MinMatchNumber, MaxMatchNumber)
	assert.False(t, ok)
}

func TestSanitizeEventCode(t *testing.T) {
	assert.Equal(t, "2026casj", SanitizeEventCode(" 2026-CASJ! "))
}

func TestIdentitySanitize(t *testing.T) {
	id := Identity{
		TeamNumber:  " 6238 ",
		ScouterName: "<b>Ada Lovelace and a very long trailing name</b>",
		SecretCode:  "secret",
		EventCode:   "casj",
	}.Sanitize()

	assert.Equal(t, "6238", id.TeamNumber)
	assert.Len(t, []rune(id.ScouterName), MaxScouterNameLength)
	assert.NotContains(t, id.ScouterName, "<")
}
