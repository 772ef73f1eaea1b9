package highlight

// Config holds the tuning constants of the pipeline. The defaults reproduce
// the calibrated behaviour; none of them is an invariant.
type Config struct {
	// MergeGap is how many normalized characters may separate two spans on
	// the same line pair before they stop being merged.
	MergeGap int `toml:"merge_gap" json:"merge_gap"`
	// MinBlockChars is the shortest line-local block that replaces a span's boundaries.
	MinBlockChars int `toml:"min_block_chars" json:"min_block_chars"`
	// MinTargetChars drops highlights whose target range is shorter.
	MinTargetChars int `toml:"min_target_chars" json:"min_target_chars"`
	// MinSimilarity drops highlights whose source and target texts are less similar.
	MinSimilarity float64 `toml:"min_similarity" json:"min_similarity"`
	// MinParagraphRun is the shortest paragraph-level equal run kept.
	MinParagraphRun int `toml:"min_paragraph_run" json:"min_paragraph_run"`
	// MaxNoiseGap is the widest punctuation-only gap bridged inside a paragraph.
	MaxNoiseGap int `toml:"max_noise_gap" json:"max_noise_gap"`
	// TargetOverlap and SourceOverlap are the overlap ratios above which two
	// highlights on the same line pair are duplicates.
	TargetOverlap float64 `toml:"target_overlap" json:"target_overlap"`
	SourceOverlap float64 `toml:"source_overlap" json:"source_overlap"`
	// Paragraphs enables the paragraph-level signal.
	Paragraphs bool `toml:"paragraphs" json:"paragraphs"`
}

// DefaultConfig returns the calibrated thresholds.
func DefaultConfig() Config {
	return Config{
		MergeGap:        4,
		MinBlockChars:   6,
		MinTargetChars:  6,
		MinSimilarity:   0.5,
		MinParagraphRun: 20,
		MaxNoiseGap:     10,
		TargetOverlap:   0.6,
		SourceOverlap:   0.4,
		Paragraphs:      true,
	}
}
