package text

import (
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Run is a stretch of text that is equal in both inputs.
// Offsets are byte offsets into each input; Size is the byte length.
type Run struct {
	StartA int
	StartB int
	Size   int
}

// EndA returns the byte offset after the run in the first input.
func (r Run) EndA() int { return r.StartA + r.Size }

// EndB returns the byte offset after the run in the second input.
func (r Run) EndB() int { return r.StartB + r.Size }

// newDiffer returns a diff-match-patch with no deadline, so the edit script
// depends only on the inputs.
func newDiffer() *diffmatchpatch.DiffMatchPatch {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return dmp
}

// EqualRuns aligns a and b with a full diff and returns every equal segment
// of the edit script, in order.
func EqualRuns(a, b string) []Run {
	diffs := newDiffer().DiffMain(a, b, false)

	var runs []Run
	posA, posB := 0, 0
	for _, diff := range diffs {
		n := len(diff.Text)
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			runs = append(runs, Run{StartA: posA, StartB: posB, Size: n})
			posA += n
			posB += n
		case diffmatchpatch.DiffDelete:
			posA += n
		case diffmatchpatch.DiffInsert:
			posB += n
		}
	}
	return runs
}

// Block is the longest contiguous match between two strings.
// Offsets and SizeA/SizeB are in bytes, Runes counts characters.
type Block struct {
	StartA int
	StartB int
	SizeA  int
	SizeB  int
	Runes  int
}

// LongestBlock returns the longest matching block between a and b, comparing
// rune by rune with a SequenceMatcher. The popular-element heuristic is off so
// long lines are not starved of anchors. Ties keep the earliest block.
func LongestBlock(a, b string) Block {
	runesA, offsA := splitRunes(a)
	runesB, offsB := splitRunes(b)

	m := difflib.NewMatcherWithJunk(runesA, runesB, false, nil)
	var best difflib.Match
	for _, blk := range m.GetMatchingBlocks() {
		if blk.Size > best.Size {
			best = blk
		}
	}
	if best.Size == 0 {
		return Block{}
	}

	return Block{
		StartA: offsA[best.A],
		StartB: offsB[best.B],
		SizeA:  offsA[best.A+best.Size] - offsA[best.A],
		SizeB:  offsB[best.B+best.Size] - offsB[best.B],
		Runes:  best.Size,
	}
}

// Ratio returns 2*M/T where M is the number of runes inside equal segments of
// the diff of a and b, and T the total rune count of both. Two empty strings
// have ratio 1.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1.0
	}
	matched := 0
	for _, diff := range newDiffer().DiffMain(a, b, false) {
		if diff.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(diff.Text)
		}
	}
	return 2.0 * float64(matched) / float64(total)
}

// splitRunes returns every rune of s as its own string plus the byte offset of
// each rune, with a trailing entry holding len(s).
func splitRunes(s string) ([]string, []int) {
	runes := make([]string, 0, len(s))
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		runes = append(runes, string(r))
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))
	return runes, offsets
}
