package highlight

import "sort"

// mergeSpans coalesces spans on the same line pair whose starts lie within gap
// normalized runes of the previous span's ends. The input is left untouched.
func mergeSpans(spans []Span, gap int) []Span {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].LineB != sorted[j].LineB {
			return sorted[i].LineB < sorted[j].LineB
		}
		return sorted[i].StartB < sorted[j].StartB
	})

	merged := make([]Span, 0, len(sorted))
	for _, cur := range sorted {
		n := len(merged)
		if n > 0 && mergeable(merged[n-1], cur, gap) {
			merged[n-1] = union(merged[n-1], cur)
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}

func mergeable(prev, cur Span, gap int) bool {
	return cur.LineA == prev.LineA && cur.LineB == prev.LineB &&
		cur.StartB <= prev.EndB+gap && cur.StartA <= prev.EndA+gap
}

func union(x, y Span) Span {
	return Span{
		StartA:    min(x.StartA, y.StartA),
		EndA:      max(x.EndA, y.EndA),
		StartB:    min(x.StartB, y.StartB),
		EndB:      max(x.EndB, y.EndB),
		RawStartA: min(x.RawStartA, y.RawStartA),
		RawEndA:   max(x.RawEndA, y.RawEndA),
		RawStartB: min(x.RawStartB, y.RawStartB),
		RawEndB:   max(x.RawEndB, y.RawEndB),
		LineA:     x.LineA,
		LineB:     x.LineB,
	}
}
