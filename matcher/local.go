package matcher

import (
	"context"

	"copymatch/highlight"
	"copymatch/logger"
	"copymatch/text"
	"copymatch/types"
)

const (
	DefaultWindow      = 32
	DefaultShingleSize = 5

	hashBase = 257
	hashMod  = 1000000007
)

// Local is the in-process engine: fixed windows of A looked up in B with a
// rolling hash, plus shingle overlap as a secondary score.
type Local struct {
	window      int
	shingleSize int
}

// NewLocal creates a local engine. Non-positive sizes fall back to the defaults.
func NewLocal(window, shingleSize int) *Local {
	if window <= 0 {
		window = DefaultWindow
	}
	if shingleSize <= 0 {
		shingleSize = DefaultShingleSize
	}
	return &Local{window: window, shingleSize: shingleSize}
}

func (l *Local) Name() string { return "local" }

// Match compares a and b in normalized space
func (l *Local) Match(ctx context.Context, a, b string) (*types.MatchResult, error) {
	defer logger.Trace("matcher.Local.Match")()

	na, nb := text.Normalize(a), text.Normalize(b)
	rk, matches, err := l.windowScore(ctx, a == b, na, nb)
	if err != nil {
		return nil, err
	}
	jc := Jaccard(na.Runes, nb.Runes, l.shingleSize)

	return &types.MatchResult{
		LocalScore:     CombineScores(rk, jc),
		RabinKarpScore: rk,
		JaccardScore:   jc,
		Matches:        matches,
	}, nil
}

func (l *Local) windowScore(ctx context.Context, identical bool, na, nb *text.NormalizedView) (float64, []highlight.RawMatch, error) {
	matches := []highlight.RawMatch{}

	if identical {
		if na.Len() > 0 {
			matches = append(matches, highlight.RawMatch{
				StartA: 0, EndA: na.Len(), StartB: 0, EndB: nb.Len(),
				LineA: 1, LineB: 1,
			})
		}
		return 100, matches, nil
	}

	if na.Len() < l.window || nb.Len() < l.window {
		n := min(na.Len(), nb.Len())
		if n == 0 {
			return 0, matches, nil
		}
		same := 0
		for i := 0; i < n; i++ {
			if na.Runes[i] == nb.Runes[i] {
				same++
			}
		}
		matches = append(matches, highlight.RawMatch{StartA: 0, EndA: n, StartB: 0, EndB: n, LineA: 1, LineB: 1})
		return float64(same) * 100 / float64(n), matches, nil
	}

	index := newWindowIndex(nb.Runes, l.window)
	total, matched := 0, 0
	for i := 0; i+l.window <= na.Len(); i += l.window {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		total++
		pattern := na.Runes[i : i+l.window]
		pos, ok := index.first(pattern)
		if !ok {
			continue
		}
		matched++
		matches = append(matches, highlight.RawMatch{
			StartA: i, EndA: i + l.window,
			StartB: pos, EndB: pos + l.window,
			LineA: na.LineAt(i), LineB: nb.LineAt(pos),
		})
	}
	if total == 0 {
		return 0, matches, nil
	}
	return float64(matched) * 100 / float64(total), matches, nil
}

// windowIndex maps the rolling hash of every window of a text to the window
// starts, in ascending order.
type windowIndex struct {
	text   []rune
	window int
	starts map[int64][]int
}

func newWindowIndex(runes []rune, window int) *windowIndex {
	idx := &windowIndex{text: runes, window: window, starts: make(map[int64][]int)}
	if len(runes) < window {
		return idx
	}

	// hashBase^(window-1), to drop the leading rune when rolling
	lead := int64(1)
	for i := 0; i < window-1; i++ {
		lead = lead * hashBase % hashMod
	}

	h := hashRunes(runes[:window])
	idx.starts[h] = append(idx.starts[h], 0)
	for i := 1; i+window <= len(runes); i++ {
		out := int64(runes[i-1]) * lead % hashMod
		h = ((h-out+hashMod)%hashMod*hashBase + int64(runes[i+window-1])) % hashMod
		idx.starts[h] = append(idx.starts[h], i)
	}
	return idx
}

// first returns the earliest window equal to pattern
func (w *windowIndex) first(pattern []rune) (int, bool) {
	for _, start := range w.starts[hashRunes(pattern)] {
		if equalRunes(w.text[start:start+w.window], pattern) {
			return start, true
		}
	}
	return 0, false
}

func hashRunes(rs []rune) int64 {
	var h int64
	for _, r := range rs {
		h = (h*hashBase + int64(r)) % hashMod
	}
	return h
}

func equalRunes(x, y []rune) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Jaccard returns the overlap of the k-rune shingle sets of a and b as a
// percentage. Two texts too short for a shingle score 100, one such text 0.
func Jaccard(a, b []rune, k int) float64 {
	setA := shingles(a, k)
	setB := shingles(b, k)
	if len(setA) == 0 && len(setB) == 0 {
		return 100
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for sh := range setA {
		if _, ok := setB[sh]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) * 100 / float64(union)
}

func shingles(rs []rune, k int) map[string]struct{} {
	set := make(map[string]struct{})
	for i := 0; i+k <= len(rs); i++ {
		set[string(rs[i:i+k])] = struct{}{}
	}
	return set
}
