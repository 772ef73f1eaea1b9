package highlight

import (
	"unicode/utf8"

	"copymatch/text"
)

// segment is a matched stretch of one paragraph pair, byte offsets relative
// to each paragraph.
type segment struct {
	startA, endA int
	startB, endB int
}

// matchParagraphs aligns every paragraph of a against every paragraph of b and
// turns long equal stretches into paragraph highlights. Stretches whose target
// range overlaps a highlight in existing are skipped.
func matchParagraphs(a, b *text.Document, existing []Highlight, score float64, cfg Config) []Highlight {
	parasA := a.Paragraphs()
	parasB := b.Paragraphs()
	if len(parasA) == 0 || len(parasB) == 0 {
		return nil
	}

	var out []Highlight
	for _, pa := range parasA {
		ta := pa.Text(a)
		for _, pb := range parasB {
			tb := pb.Text(b)
			for _, seg := range alignParagraphs(ta, tb, cfg) {
				startA, endA := pa.Start+seg.startA, pa.Start+seg.endA
				startB, endB := pb.Start+seg.startB, pb.Start+seg.endB
				if overlapsAny(existing, startB, endB) {
					continue
				}
				h := newHighlight(a, b, startA, endA, startB, endB)
				h.Score = score
				h.MatchType = MatchParagraph
				h.Source = SourceParagraph
				out = append(out, h)
			}
		}
	}
	return out
}

// alignParagraphs returns the equal runs of ta and tb after bridging short
// punctuation-only gaps, keeping those with at least MinParagraphRun target runes.
func alignParagraphs(ta, tb string, cfg Config) []segment {
	var merged []segment
	for _, run := range text.EqualRuns(ta, tb) {
		cur := segment{startA: run.StartA, endA: run.EndA(), startB: run.StartB, endB: run.EndB()}
		if n := len(merged); n > 0 && noiseGap(ta[merged[n-1].endA:cur.startA], tb[merged[n-1].endB:cur.startB], cfg.MaxNoiseGap) {
			merged[n-1].endA = cur.endA
			merged[n-1].endB = cur.endB
			continue
		}
		merged = append(merged, cur)
	}

	kept := merged[:0]
	for _, seg := range merged {
		if utf8.RuneCountInString(tb[seg.startB:seg.endB]) >= cfg.MinParagraphRun {
			kept = append(kept, seg)
		}
	}
	return kept
}

func noiseGap(gapA, gapB string, maxGap int) bool {
	return utf8.RuneCountInString(gapA) <= maxGap && utf8.RuneCountInString(gapB) <= maxGap &&
		text.IsNoise(gapA) && text.IsNoise(gapB)
}

func overlapsAny(hs []Highlight, start, end int) bool {
	for _, h := range hs {
		if overlaps(start, end, h.Start, h.End) {
			return true
		}
	}
	return false
}
