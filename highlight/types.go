package highlight

import "copymatch/text"

// MatchType tags how a highlight was found
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchPartial   MatchType = "partial"
	MatchParagraph MatchType = "paragraph"
)

// priority orders match types for deduplication; higher wins
func (mt MatchType) priority() int {
	if mt == MatchParagraph {
		return 1
	}
	return 0
}

const (
	SourceLocal     = "local"
	SourceParagraph = "paragraph"
)

// RawMatch is one equal-text window reported by an exact-match engine, in
// normalized coordinates (rune indexes into text.NormalizedView).
type RawMatch struct {
	StartA int `json:"startA"`
	EndA   int `json:"endA"`
	StartB int `json:"startB"`
	EndB   int `json:"endB"`
	LineA  int `json:"lineA"`
	LineB  int `json:"lineB"`
}

// within reports whether the match fits views of the given lengths
func (m RawMatch) within(lenA, lenB int) bool {
	return m.StartA >= 0 && m.StartB >= 0 &&
		m.StartA <= m.EndA && m.StartB <= m.EndB &&
		m.EndA <= lenA && m.EndB <= lenB
}

// Span is a match region carried through extension and merging.
// Start/End fields are normalized coordinates, Raw* fields byte offsets.
type Span struct {
	StartA, EndA       int
	StartB, EndB       int
	RawStartA, RawEndA int
	RawStartB, RawEndB int
	LineA, LineB       int
}

// remap recomputes the raw boundaries from the normalized ones
func (s *Span) remap(a, b *text.NormalizedView) {
	s.RawStartA, s.RawEndA = a.RawRange(s.StartA, s.EndA)
	s.RawStartB, s.RawEndB = b.RawRange(s.StartB, s.EndB)
}

// Highlight is a display-ready correspondence between a range of document A
// (source) and a range of document B (target). Start/End repeat the target range.
type Highlight struct {
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Source     string    `json:"source"`
	Score      float64   `json:"score"`
	TextA      string    `json:"textA"`
	TextB      string    `json:"textB"`
	LineA      int       `json:"lineA"`
	LineB      int       `json:"lineB"`
	LineStartA int       `json:"lineStartA"`
	LineEndA   int       `json:"lineEndA"`
	LineStartB int       `json:"lineStartB"`
	LineEndB   int       `json:"lineEndB"`
	CharStartA int       `json:"charStartA"`
	CharEndA   int       `json:"charEndA"`
	CharStartB int       `json:"charStartB"`
	CharEndB   int       `json:"charEndB"`
	LineTextA  string    `json:"lineTextA"`
	LineTextB  string    `json:"lineTextB"`
	MatchType  MatchType `json:"matchType"`
	SourceFile string    `json:"sourceFile"`
	TargetFile string    `json:"targetFile"`
}

// span returns the combined length of both ranges
func (h Highlight) span() int {
	return (h.End - h.Start) + (h.CharEndA - h.CharStartA)
}

// outranks reports whether h should replace other when both describe the same match
func (h Highlight) outranks(other Highlight) bool {
	if hp, op := h.MatchType.priority(), other.MatchType.priority(); hp != op {
		return hp > op
	}
	return h.span() > other.span()
}

// newHighlight freezes raw ranges of a and b into a Highlight, deriving line metadata
func newHighlight(a, b *text.Document, startA, endA, startB, endB int) Highlight {
	lineA, lineTextA := a.LineMeta(startA, endA)
	lineB, lineTextB := b.LineMeta(startB, endB)
	return Highlight{
		Start:      startB,
		End:        endB,
		TextA:      a.Text[startA:endA],
		TextB:      b.Text[startB:endB],
		LineA:      lineA,
		LineB:      lineB,
		LineStartA: lineA,
		LineEndA:   a.LineNumber(max(endA-1, startA)),
		LineStartB: lineB,
		LineEndB:   b.LineNumber(max(endB-1, startB)),
		CharStartA: startA,
		CharEndA:   endA,
		CharStartB: startB,
		CharEndB:   endB,
		LineTextA:  lineTextA,
		LineTextB:  lineTextB,
		SourceFile: a.Name,
		TargetFile: b.Name,
	}
}

// overlaps reports whether half-open ranges [s1,e1) and [s2,e2) intersect
func overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// overlapRatio is intersection over union of two half-open ranges, 0 when disjoint
func overlapRatio(s1, e1, s2, e2 int) float64 {
	inter := min(e1, e2) - max(s1, s2)
	if inter <= 0 {
		return 0
	}
	union := max(e1, e2) - min(s1, s2)
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
