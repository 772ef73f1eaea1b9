package matcher

import (
	"context"

	"copymatch/types"
)

// Engine finds exact matches between two raw texts. Matches come back in
// the normalized coordinates of text.Normalize.
type Engine interface {
	Name() string
	Match(ctx context.Context, a, b string) (*types.MatchResult, error)
}

// CombineScores blends the window and shingle scores. Without a single
// matched window the shingle score is ignored.
func CombineScores(rk, jaccard float64) float64 {
	if rk > 0 {
		return 0.8*rk + 0.2*jaccard
	}
	return rk
}
