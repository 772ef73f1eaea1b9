package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// minDocRun is the shortest printable run kept from a binary .doc stream
const minDocRun = 8

// extractDoc pulls readable text out of a legacy Word binary. Word stores
// body text either as UTF-16LE or as Windows-1252 bytes, so both encodings
// are scanned for printable runs and the richer result wins.
func extractDoc(data []byte) string {
	wide := utf16Runs(data)
	narrow := cp1252Runs(data)
	if len(narrow) > len(wide) {
		return narrow
	}
	return wide
}

func utf16Runs(data []byte) string {
	if len(data) < 2 {
		return ""
	}
	dec := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewDecoder()
	decoded, err := dec.Bytes(data[:len(data)&^1])
	if err != nil {
		return ""
	}
	// byte pairs of 8-bit text decode to CJK; only Latin, Greek, Cyrillic
	// and general punctuation count as text here
	return printableRuns(string(decoded), func(r rune) bool {
		return r <= 0x04FF || (r >= 0x2000 && r <= 0x206F)
	})
}

func cp1252Runs(data []byte) string {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return ""
	}
	return printableRuns(string(decoded), func(rune) bool { return true })
}

// printableRuns keeps runs of at least minDocRun printable runes holding a
// letter, one per line. Word's paragraph mark '\r' ends a run.
func printableRuns(s string, accept func(rune) bool) string {
	var out []string
	var run strings.Builder
	n := 0
	flush := func() {
		text := strings.TrimSpace(run.String())
		if n >= minDocRun && strings.IndexFunc(text, unicode.IsLetter) >= 0 {
			out = append(out, text)
		}
		run.Reset()
		n = 0
	}
	for _, r := range s {
		if r == '\t' || (unicode.IsPrint(r) && r != unicode.ReplacementChar && accept(r)) {
			run.WriteRune(r)
			n++
			continue
		}
		flush()
	}
	flush()
	return strings.Join(out, "\n")
}
