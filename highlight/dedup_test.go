package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hl(start, end, startA, endA int, mt MatchType) Highlight {
	return Highlight{
		Start: start, End: end,
		CharStartB: start, CharEndB: end,
		CharStartA: startA, CharEndA: endA,
		LineA: 1, LineB: 1,
		MatchType: mt,
	}
}

func TestDedupe_OverlappingKeepsLonger(t *testing.T) {
	first := hl(10, 20, 10, 20, MatchPartial)
	second := hl(12, 22, 12, 23, MatchPartial)

	out := Dedupe([]Highlight{first, second}, DefaultConfig())

	require.Len(t, out, 1)
	assert.Equal(t, second, out[0], "longer combined span wins")
}

func TestDedupe_ParagraphOutranksLocal(t *testing.T) {
	para := hl(10, 20, 10, 20, MatchParagraph)
	local := hl(12, 22, 12, 23, MatchExact)

	out := Dedupe([]Highlight{local, para}, DefaultConfig())

	require.Len(t, out, 1)
	assert.Equal(t, MatchParagraph, out[0].MatchType, "paragraph kept despite being shorter")
}

func TestDedupe_TieKeepsRetained(t *testing.T) {
	first := hl(10, 20, 10, 20, MatchPartial)
	second := hl(12, 22, 12, 22, MatchPartial)

	out := Dedupe([]Highlight{second, first}, DefaultConfig())

	require.Len(t, out, 1)
	assert.Equal(t, first, out[0], "equal spans keep the earlier one")
}

func TestDedupe_DifferentLinePairKept(t *testing.T) {
	first := hl(10, 20, 10, 20, MatchPartial)
	second := hl(12, 22, 12, 23, MatchPartial)
	second.LineA = 2

	out := Dedupe([]Highlight{first, second}, DefaultConfig())
	assert.Len(t, out, 2, "line A differs")
}

func TestDedupe_LowSourceOverlapKept(t *testing.T) {
	first := hl(10, 20, 10, 20, MatchPartial)
	second := hl(12, 22, 40, 50, MatchPartial)

	out := Dedupe([]Highlight{first, second}, DefaultConfig())
	assert.Len(t, out, 2, "same target, different source")
}

func TestDedupe_SortsByLineThenStart(t *testing.T) {
	x := hl(50, 60, 0, 10, MatchPartial)
	y := hl(0, 10, 0, 10, MatchPartial)
	y.LineB = 2
	z := hl(20, 30, 0, 10, MatchPartial)

	out := Dedupe([]Highlight{x, y, z}, DefaultConfig())

	require.Len(t, out, 3)
	assert.Equal(t, []Highlight{z, x, y}, out, "ordered by line B, then start")
}

func TestDedupe_Idempotent(t *testing.T) {
	hs := []Highlight{
		hl(0, 10, 0, 10, MatchPartial),
		hl(1, 11, 1, 11, MatchParagraph),
		hl(2, 12, 2, 13, MatchExact),
		hl(3, 14, 3, 14, MatchPartial),
		hl(30, 40, 30, 40, MatchPartial),
		hl(31, 41, 80, 90, MatchPartial),
		hl(32, 39, 30, 39, MatchParagraph),
	}

	once := Dedupe(hs, DefaultConfig())
	twice := Dedupe(once, DefaultConfig())
	assert.Equal(t, once, twice, "second pass changes nothing")
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil, DefaultConfig()), "nothing to deduplicate")
}
