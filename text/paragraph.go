package text

import "strings"

// Paragraph is a maximal run of non-blank lines.
type Paragraph struct {
	Start     int // byte offset of the first line
	End       int // byte offset after the last line, terminator excluded
	FirstLine int // 1-indexed
	LastLine  int // 1-indexed
}

// Text returns the paragraph's slice of doc.
func (p Paragraph) Text(doc *Document) string {
	return doc.Text[p.Start:p.End]
}

// Paragraphs splits the document on runs of blank lines. A blank line is one
// whose content is empty after trimming whitespace.
func (d *Document) Paragraphs() []Paragraph {
	index := d.LineIndex()
	var out []Paragraph
	var cur *Paragraph

	for i := range index {
		line := i + 1
		content := d.LineText(line)
		if strings.TrimSpace(content) == "" {
			if cur != nil {
				out = append(out, *cur)
				cur = nil
			}
			continue
		}
		end := index[i] + len(content)
		if cur == nil {
			cur = &Paragraph{Start: index[i], FirstLine: line}
		}
		cur.End = end
		cur.LastLine = line
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}
