package highlight

import (
	"unicode/utf8"

	"copymatch/logger"
	"copymatch/text"
)

// refineSpans snaps single-line spans to the longest block shared by their two
// lines, applies the quality gate and freezes survivors into highlights.
func refineSpans(a, b *text.Document, spans []Span, score float64, cfg Config) []Highlight {
	matchType := MatchPartial
	if score == 100 {
		matchType = MatchExact
	}

	var out []Highlight
	for _, s := range spans {
		startA, endA, startB, endB, ok := refineBounds(a, b, s, cfg.MinBlockChars)
		if !ok {
			logger.Debug("refine: dropping degenerate span B[%d,%d)", s.RawStartB, s.RawEndB)
			continue
		}

		textA := a.Text[startA:endA]
		textB := b.Text[startB:endB]
		if utf8.RuneCountInString(textB) < cfg.MinTargetChars {
			continue
		}
		if text.Ratio(text.NormalizeString(textA), text.NormalizeString(textB)) < cfg.MinSimilarity {
			continue
		}

		h := newHighlight(a, b, startA, endA, startB, endB)
		h.Score = score
		h.MatchType = matchType
		h.Source = SourceLocal
		out = append(out, h)
	}
	return out
}

// refineBounds returns the raw boundaries to keep for s. ok is false when
// neither the refined nor the original range is usable.
func refineBounds(a, b *text.Document, s Span, minBlock int) (startA, endA, startB, endB int, ok bool) {
	startA, endA = clampRange(s.RawStartA, s.RawEndA, a.Len())
	startB, endB = clampRange(s.RawStartB, s.RawEndB, b.Len())
	origOK := endA > startA && endB > startB

	lineA, lineTextA := a.LineMeta(startA, endA)
	lineB, lineTextB := b.LineMeta(startB, endB)
	lastA := a.LineNumber(max(endA-1, startA))
	lastB := b.LineNumber(max(endB-1, startB))

	singleLine := lineA > 0 && lineB > 0 && lineA == lastA && lineB == lastB &&
		lineTextA != "" && lineTextB != ""
	if !singleLine {
		return startA, endA, startB, endB, origOK
	}

	blk := text.LongestBlock(lineTextA, lineTextB)
	if blk.Runes < minBlock {
		return startA, endA, startB, endB, origOK
	}

	rsA := a.LineStart(lineA) + blk.StartA
	rsB := b.LineStart(lineB) + blk.StartB
	reA, reB := rsA+blk.SizeA, rsB+blk.SizeB
	if reA <= rsA || reB <= rsB {
		return startA, endA, startB, endB, origOK
	}
	return rsA, reA, rsB, reB, true
}

func clampRange(start, end, n int) (int, int) {
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	return start, end
}
