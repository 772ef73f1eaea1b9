package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIndex(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []int
	}{
		{name: "empty", text: "", expected: []int{0}},
		{name: "single line", text: "hello", expected: []int{0}},
		{name: "trailing newline", text: "a\nb\n", expected: []int{0, 2}},
		{name: "crlf", text: "ab\r\ncd", expected: []int{0, 4}},
		{name: "lone cr", text: "ab\rcd", expected: []int{0, 3}},
		{name: "blank lines", text: "a\n\n\nb", expected: []int{0, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument("", tt.text)
			assert.Equal(t, tt.expected, doc.LineIndex(), "line index")
		})
	}
}

func TestLineNumber(t *testing.T) {
	doc := NewDocument("", "hello\nworld\n!")

	assert.Equal(t, 1, doc.LineNumber(0), "start")
	assert.Equal(t, 1, doc.LineNumber(5), "newline belongs to first line")
	assert.Equal(t, 2, doc.LineNumber(6), "second line start")
	assert.Equal(t, 3, doc.LineNumber(12), "last line")
	assert.Equal(t, 1, doc.LineNumber(-4), "negative clamps to start")
	assert.Equal(t, 3, doc.LineNumber(100), "past end clamps to last line")
}

func TestLineMeta_SkipsLeadingTerminators(t *testing.T) {
	doc := NewDocument("", "first line\nsecond line\r\nthird")

	line, content := doc.LineMeta(10, 17)
	assert.Equal(t, 2, line, "span starting on a newline reports the next line")
	assert.Equal(t, "second line", content, "line text")

	line, content = doc.LineMeta(22, 30)
	assert.Equal(t, 3, line, "crlf skipped")
	assert.Equal(t, "third", content, "line text")
}

func TestLineMeta_EmptySpan(t *testing.T) {
	doc := NewDocument("", "abc\ndef")

	line, content := doc.LineMeta(5, 5)
	assert.Equal(t, 2, line, "empty span still locates its line")
	assert.Equal(t, "def", content, "line text")
}

func TestLineMeta_EmptyDocument(t *testing.T) {
	doc := NewDocument("", "")

	line, content := doc.LineMeta(0, 10)
	assert.Equal(t, 0, line, "line")
	assert.Equal(t, "", content, "content")
}

func TestLineSpan(t *testing.T) {
	doc := NewDocument("", "one\ntwo\nthree")

	first, last := doc.LineSpan(0, 3)
	assert.Equal(t, 1, first, "first")
	assert.Equal(t, 1, last, "last")

	first, last = doc.LineSpan(2, 9)
	assert.Equal(t, 1, first, "first")
	assert.Equal(t, 3, last, "last")
}

func TestLineStartAndText(t *testing.T) {
	doc := NewDocument("", "one\r\ntwo\nthree")

	assert.Equal(t, 0, doc.LineStart(1), "line 1")
	assert.Equal(t, 5, doc.LineStart(2), "line 2")
	assert.Equal(t, 9, doc.LineStart(3), "line 3")
	assert.Equal(t, "one", doc.LineText(1), "crlf stripped")
	assert.Equal(t, "three", doc.LineText(3), "last line")
	assert.Equal(t, "", doc.LineText(4), "out of range")
}

func TestParagraphs(t *testing.T) {
	doc := NewDocument("", "alpha\nbeta\n\n   \ngamma\n\ndelta\n")

	paras := doc.Paragraphs()

	assert.Equal(t, 3, len(paras), "paragraph count")
	assert.Equal(t, "alpha\nbeta", paras[0].Text(doc), "first")
	assert.Equal(t, 1, paras[0].FirstLine, "first line")
	assert.Equal(t, 2, paras[0].LastLine, "last line")
	assert.Equal(t, "gamma", paras[1].Text(doc), "second")
	assert.Equal(t, "delta", paras[2].Text(doc), "third")
}

func TestParagraphs_Empty(t *testing.T) {
	doc := NewDocument("", "\n\n  \n")

	assert.Equal(t, 0, len(doc.Paragraphs()), "no paragraphs in blank text")
}
