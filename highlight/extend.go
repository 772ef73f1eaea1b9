package highlight

import (
	"sort"

	"copymatch/logger"
	"copymatch/text"
)

// extendSpans grows every raw match to the maximal equal run around it and
// folds windows that land inside an already accepted span. Output spans never
// overlap on B and come out ordered by StartB.
func extendSpans(a, b *text.NormalizedView, matches []RawMatch) []Span {
	sorted := make([]RawMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartB < sorted[j].StartB
	})

	var spans []Span
	lastEndB := -1
	for _, m := range sorted {
		if !m.within(a.Len(), b.Len()) {
			logger.Debug("extend: dropping out of range match %+v", m)
			continue
		}

		sa, ea, sb, eb := m.StartA, m.EndA, m.StartB, m.EndB
		for sa > 0 && sb > 0 && a.Runes[sa-1] == b.Runes[sb-1] {
			sa--
			sb--
		}
		for ea < a.Len() && eb < b.Len() && a.Runes[ea] == b.Runes[eb] {
			ea++
			eb++
		}
		if ea <= sa || eb <= sb {
			continue
		}

		if len(spans) > 0 && sb <= lastEndB {
			prev := &spans[len(spans)-1]
			if eb > prev.EndB {
				prev.EndA = max(prev.EndA, ea)
				prev.EndB = eb
				prev.remap(a, b)
			}
		} else {
			s := Span{
				StartA: sa, EndA: ea,
				StartB: sb, EndB: eb,
				LineA: m.LineA, LineB: m.LineB,
			}
			// engines that do not track lines send 0
			if s.LineA <= 0 {
				s.LineA = a.LineAt(sa)
			}
			if s.LineB <= 0 {
				s.LineB = b.LineAt(sb)
			}
			s.remap(a, b)
			spans = append(spans, s)
		}
		lastEndB = max(lastEndB, eb)
	}
	return spans
}
