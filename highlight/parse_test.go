package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawMatches_SkipsMalformed(t *testing.T) {
	payload := `[
		{"startA": 0, "endA": 5, "startB": 2, "endB": 7, "lineA": 1, "lineB": 1},
		{"startA": "0", "endA": 5, "startB": 2, "endB": 7, "lineA": 1, "lineB": 1},
		{"startA": 0, "endA": 5, "startB": 2, "endB": 7, "lineA": 1},
		{"startA": 0.5, "endA": 5, "startB": 2, "endB": 7, "lineA": 1, "lineB": 1},
		{"startA": null, "endA": 5, "startB": 2, "endB": 7, "lineA": 1, "lineB": 1},
		3,
		"match",
		null,
		{"startA": 10, "endA": 20.0, "startB": 30, "endB": 40, "lineA": 2, "lineB": 3, "extra": true}
	]`

	matches, dropped, err := ParseRawMatches([]byte(payload))

	require.NoError(t, err)
	assert.Equal(t, 7, dropped, "dropped count")
	assert.Equal(t, []RawMatch{
		{StartA: 0, EndA: 5, StartB: 2, EndB: 7, LineA: 1, LineB: 1},
		{StartA: 10, EndA: 20, StartB: 30, EndB: 40, LineA: 2, LineB: 3},
	}, matches, "valid records")
}

func TestParseRawMatches_NotAnArray(t *testing.T) {
	_, _, err := ParseRawMatches([]byte(`{"matches": []}`))
	assert.Error(t, err, "object payload")

	_, _, err = ParseRawMatches([]byte(`not json`))
	assert.Error(t, err, "garbage payload")
}

func TestParseRawMatches_Empty(t *testing.T) {
	matches, dropped, err := ParseRawMatches([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, matches, "no matches")
	assert.Equal(t, 0, dropped, "nothing dropped")
}
