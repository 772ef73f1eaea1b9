package text

import (
	"sort"
	"strings"
	"sync"
)

// Document is an immutable text with lazily computed derived views.
type Document struct {
	Name string
	Text string

	linesOnce sync.Once
	lineIndex []int

	normOnce sync.Once
	norm     *NormalizedView
}

// NewDocument wraps text. The name is carried into highlights as the file name.
func NewDocument(name, text string) *Document {
	return &Document{Name: name, Text: text}
}

// Len returns the byte length of the text.
func (d *Document) Len() int {
	return len(d.Text)
}

// LineIndex returns the byte offset of every line start. Line breaks are "\n",
// "\r\n" and a lone "\r". An empty text has the single synthetic entry 0.
func (d *Document) LineIndex() []int {
	d.linesOnce.Do(func() {
		d.lineIndex = computeLineIndex(d.Text)
	})
	return d.lineIndex
}

// Normalized returns the folded view of the text.
func (d *Document) Normalized() *NormalizedView {
	d.normOnce.Do(func() {
		d.norm = Normalize(d.Text)
	})
	return d.norm
}

func computeLineIndex(s string) []int {
	offsets := []int{0}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			if i+1 < len(s) {
				offsets = append(offsets, i+1)
			}
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				continue
			}
			if i+1 < len(s) {
				offsets = append(offsets, i+1)
			}
		}
	}
	return offsets
}

// LineNumber returns the 1-based line containing pos. pos is clamped into
// [0, len(text)) first.
func (d *Document) LineNumber(pos int) int {
	return LineNumber(d.LineIndex(), pos, len(d.Text))
}

// LineNumber finds the greatest line offset <= pos in index, 1-based.
func LineNumber(index []int, pos, textLen int) int {
	if len(index) == 0 {
		return 0
	}
	if pos >= textLen {
		pos = textLen - 1
	}
	if pos < 0 {
		pos = 0
	}
	idx := sort.Search(len(index), func(i int) bool { return index[i] > pos }) - 1
	return max(0, min(idx, len(index)-1)) + 1
}

// LineStart returns the byte offset where the 1-based line begins.
func (d *Document) LineStart(line int) int {
	index := d.LineIndex()
	if line < 1 {
		return 0
	}
	if line > len(index) {
		return len(d.Text)
	}
	return index[line-1]
}

// LineText returns the 1-based line without its terminator.
func (d *Document) LineText(line int) string {
	index := d.LineIndex()
	if line < 1 || line > len(index) {
		return ""
	}
	start := index[line-1]
	end := len(d.Text)
	if line < len(index) {
		end = index[line]
	}
	return strings.TrimRight(d.Text[start:end], "\r\n")
}

// LineMeta locates the line a span [start,end) starts on. Leading line
// terminators inside the span are skipped, so a span that begins exactly at a
// line break reports the following line. Returns (0, "") for an empty text.
func (d *Document) LineMeta(start, end int) (int, string) {
	n := len(d.Text)
	if n == 0 {
		return 0, ""
	}
	if start < 0 {
		start = 0
	}
	if end <= start {
		end = min(n, start+1)
	}
	limit := min(n, max(end, start+1))
	pos := max(0, min(start, n-1))
	for pos < limit && (d.Text[pos] == '\r' || d.Text[pos] == '\n') {
		pos++
	}
	if pos >= n {
		pos = n - 1
	}
	line := d.LineNumber(pos)
	return line, d.LineText(line)
}

// LineSpan returns the first and last line a raw byte range touches.
func (d *Document) LineSpan(start, end int) (int, int) {
	first, _ := d.LineMeta(start, end)
	return first, d.LineNumber(max(end-1, start))
}
