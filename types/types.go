package types

import (
	"time"

	"copymatch/highlight"
)

// Mode is the only comparison mode currently served
const ModeLocal = "local"

// MatchResult is what an exact-match engine reports for one document pair.
// Matches are in normalized coordinates.
type MatchResult struct {
	LocalScore     float64              `json:"localScore"`
	RabinKarpScore float64              `json:"rabinKarpScore"`
	JaccardScore   float64              `json:"jaccardScore"`
	Matches        []highlight.RawMatch `json:"matches"`
	// Dropped counts malformed match records skipped while decoding
	Dropped int `json:"-"`
}

// EmptyMatchResult is the degraded result used when no engine answered
func EmptyMatchResult() *MatchResult {
	return &MatchResult{Matches: []highlight.RawMatch{}}
}

// Report is the envelope returned for every comparison
type Report struct {
	ID                  string                `json:"id"`
	OverallScore        float64               `json:"overallScore"`
	LocalScore          float64               `json:"localScore"`
	RabinKarpScore      float64               `json:"rabinKarpScore"`
	JaccardScore        float64               `json:"jaccardScore"`
	Highlights          []highlight.Highlight `json:"highlights"`
	LocalHighlights     []highlight.Highlight `json:"localHighlights"`
	ParagraphHighlights []highlight.Highlight `json:"paragraphHighlights"`
	Mode                string                `json:"mode"`
	Engine              string                `json:"engine"`
	SourceFullText      string                `json:"sourceFullText"`
	TargetFullText      string                `json:"targetFullText"`
	SourceFileName      string                `json:"sourceFileName"`
	TargetFileName      string                `json:"targetFileName"`
	DroppedMatches      int                   `json:"droppedMatches"`
	Truncated           bool                  `json:"truncated,omitempty"`
	CreatedAt           time.Time             `json:"createdAt"`
}

// CountByType returns how many highlights carry each match type
func (r *Report) CountByType() map[highlight.MatchType]int {
	counts := make(map[highlight.MatchType]int)
	for _, h := range r.Highlights {
		counts[h.MatchType]++
	}
	return counts
}

// CompareResponse is what the Neovim handler returns to the editor
type CompareResponse struct {
	OverallScore float64 `msgpack:"overallScore"`
	Count        int     `msgpack:"count"`
}
