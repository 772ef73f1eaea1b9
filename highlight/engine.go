package highlight

import (
	"copymatch/logger"
	"copymatch/text"
)

// Default file names used when a document carries none
const (
	DefaultSourceFile = "fileA"
	DefaultTargetFile = "fileB"
)

// Input is one comparison: source document A, target document B, the raw
// matches of an exact-match engine and the engine's aggregate score (0-100).
type Input struct {
	A       *text.Document
	B       *text.Document
	Matches []RawMatch
	Score   float64
}

// Result holds the deduplicated highlights plus the two signals they came from.
type Result struct {
	Highlights []Highlight `json:"highlights"`
	Local      []Highlight `json:"localHighlights"`
	Paragraph  []Highlight `json:"paragraphHighlights"`
	Score      float64     `json:"score"`
}

// Engine runs the refinement pipeline. It keeps no state between runs and is
// safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given thresholds
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's thresholds
func (e *Engine) Config() Config {
	return e.cfg
}

// Run turns raw matches into display-ready highlights. It never fails: bad
// matches are dropped and empty documents yield an empty result.
func (e *Engine) Run(in Input) *Result {
	defer logger.Trace("highlight.Run")()

	res := &Result{
		Highlights: []Highlight{},
		Local:      []Highlight{},
		Paragraph:  []Highlight{},
		Score:      in.Score,
	}
	if in.A == nil || in.B == nil || in.A.Len() == 0 || in.B.Len() == 0 {
		return res
	}

	normA, normB := in.A.Normalized(), in.B.Normalized()
	spans := extendSpans(normA, normB, in.Matches)
	spans = mergeSpans(spans, e.cfg.MergeGap)
	local := refineSpans(in.A, in.B, spans, in.Score, e.cfg)

	var paragraph []Highlight
	if e.cfg.Paragraphs {
		paragraph = matchParagraphs(in.A, in.B, local, in.Score, e.cfg)
	}

	all := make([]Highlight, 0, len(local)+len(paragraph))
	all = append(all, local...)
	all = append(all, paragraph...)
	deduped := Dedupe(all, e.cfg)

	logger.Debug("highlight: %d matches -> %d spans -> %d local, %d paragraph, %d kept",
		len(in.Matches), len(spans), len(local), len(paragraph), len(deduped))

	res.Highlights = withFileNames(deduped)
	res.Local = withFileNames(local)
	res.Paragraph = withFileNames(paragraph)
	return res
}

func withFileNames(hs []Highlight) []Highlight {
	out := make([]Highlight, len(hs))
	for i, h := range hs {
		if h.SourceFile == "" {
			h.SourceFile = DefaultSourceFile
		}
		if h.TargetFile == "" {
			h.TargetFile = DefaultTargetFile
		}
		out[i] = h
	}
	return out
}
