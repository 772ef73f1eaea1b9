package highlight

import "sort"

// Dedupe collapses highlights that describe the same correspondence: same line
// pair, target overlap of at least cfg.TargetOverlap and source overlap of at
// least cfg.SourceOverlap. Paragraph highlights win over local ones, then the
// larger combined span wins. The result is sorted by (LineB, Start) and is a
// fixpoint: deduplicating it again changes nothing.
func Dedupe(hs []Highlight, cfg Config) []Highlight {
	out := make([]Highlight, len(hs))
	copy(out, hs)
	for {
		sortHighlights(out)
		next, merged := dedupePass(out, cfg)
		out = next
		if !merged {
			return out
		}
	}
}

func dedupePass(hs []Highlight, cfg Config) ([]Highlight, bool) {
	kept := make([]Highlight, 0, len(hs))
	merged := false
	for _, h := range hs {
		n := len(kept)
		if n > 0 && duplicates(kept[n-1], h, cfg) {
			if h.outranks(kept[n-1]) {
				kept[n-1] = h
			}
			merged = true
			continue
		}
		kept = append(kept, h)
	}
	return kept, merged
}

func duplicates(x, y Highlight, cfg Config) bool {
	if x.LineA != y.LineA || x.LineB != y.LineB {
		return false
	}
	return overlapRatio(x.Start, x.End, y.Start, y.End) >= cfg.TargetOverlap &&
		overlapRatio(x.CharStartA, x.CharEndA, y.CharStartA, y.CharEndA) >= cfg.SourceOverlap
}

func sortHighlights(hs []Highlight) {
	sort.SliceStable(hs, func(i, j int) bool {
		x, y := hs[i], hs[j]
		if x.LineB != y.LineB {
			return x.LineB < y.LineB
		}
		if x.Start != y.Start {
			return x.Start < y.Start
		}
		if x.End != y.End {
			return x.End < y.End
		}
		return x.CharStartA < y.CharStartA
	})
}
