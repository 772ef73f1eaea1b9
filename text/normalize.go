package text

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizedView is the case- and whitespace-folded projection of a raw text.
// Coordinates into the view are rune indices; IndexMap[k] is the byte offset in
// the raw text of the rune that produced normalized rune k.
type NormalizedView struct {
	Runes    []rune
	IndexMap []int

	raw      string
	newlines []int // normalized indexes of '\n'
}

// Normalize folds raw text for matching:
//   - '\n' is kept as is and ends any whitespace run
//   - every other maximal whitespace run becomes a single ' ', mapped to the run's first rune
//   - all other runes are lowercased
func Normalize(raw string) *NormalizedView {
	v := &NormalizedView{
		Runes:    make([]rune, 0, len(raw)),
		IndexMap: make([]int, 0, len(raw)),
		raw:      raw,
	}

	inSpace := false
	for i, r := range raw {
		switch {
		case r == '\n':
			v.newlines = append(v.newlines, len(v.Runes))
			v.Runes = append(v.Runes, '\n')
			v.IndexMap = append(v.IndexMap, i)
			inSpace = false
		case unicode.IsSpace(r):
			if !inSpace {
				v.Runes = append(v.Runes, ' ')
				v.IndexMap = append(v.IndexMap, i)
				inSpace = true
			}
		default:
			v.Runes = append(v.Runes, unicode.ToLower(r))
			v.IndexMap = append(v.IndexMap, i)
			inSpace = false
		}
	}
	return v
}

// NormalizeString returns only the folded text of raw.
func NormalizeString(raw string) string {
	return Normalize(raw).String()
}

// Len returns the number of normalized runes.
func (v *NormalizedView) Len() int {
	return len(v.Runes)
}

// String returns the normalized text.
func (v *NormalizedView) String() string {
	return string(v.Runes)
}

// Raw returns the text the view was built from.
func (v *NormalizedView) Raw() string {
	return v.raw
}

// RawOffset maps a normalized index to its raw byte offset. Indexes at or past
// the end map to len(raw).
func (v *NormalizedView) RawOffset(k int) int {
	if k < 0 {
		return 0
	}
	if k >= len(v.IndexMap) {
		return len(v.raw)
	}
	return v.IndexMap[k]
}

// RawRange maps the normalized half-open range [start,end) to a raw byte range.
// The end is the end of the raw rune behind normalized index end-1, so a folded
// whitespace run only covers its first raw rune.
func (v *NormalizedView) RawRange(start, end int) (int, int) {
	n := len(v.IndexMap)
	if n == 0 {
		return 0, 0
	}
	start = max(0, min(start, n-1))
	last := max(start, min(end-1, n-1))

	rawStart := v.IndexMap[start]
	lastOff := v.IndexMap[last]
	_, width := utf8.DecodeRuneInString(v.raw[lastOff:])
	return rawStart, lastOff + width
}

// Equal reports whether two normalized runes at the given positions match.
// Out of range positions never match.
func Equal(a, b *NormalizedView, i, j int) bool {
	if i < 0 || j < 0 || i >= len(a.Runes) || j >= len(b.Runes) {
		return false
	}
	return a.Runes[i] == b.Runes[j]
}

// LineAt returns the 1-based line of normalized index k, counting '\n' runes.
func (v *NormalizedView) LineAt(k int) int {
	// number of newlines strictly before k
	return sort.SearchInts(v.newlines, k) + 1
}

// IsNoise reports whether s holds no letter or digit.
func IsNoise(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) < 0
}
