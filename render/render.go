// Package render prints comparison reports to a terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"copymatch/highlight"
	"copymatch/types"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const defaultWidth = 100

// Theme defines the colour palette of a report
type Theme struct {
	Primary   lipgloss.Color
	Muted     lipgloss.Color
	Exact     lipgloss.Color
	Partial   lipgloss.Color
	Paragraph lipgloss.Color
	Border    lipgloss.Color
}

// DefaultTheme returns the default colours
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Exact:     lipgloss.Color("#F38BA8"), // Red
		Partial:   lipgloss.Color("#F9E2AF"), // Yellow
		Paragraph: lipgloss.Color("#89B4FA"), // Blue
		Border:    lipgloss.Color("#45475A"),
	}
}

// Options controls how a report is printed
type Options struct {
	// Color enables ANSI styling; without it match types are marked with brackets
	Color bool
	// Width bounds excerpt lines (0 = 100)
	Width int
	// Annotate prints the full target text with highlighted ranges marked
	Annotate bool
}

// DetectOptions enables colour and picks the width when f is a terminal
func DetectOptions(f *os.File) Options {
	opts := Options{Width: defaultWidth}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return opts
	}
	opts.Color = true
	if w, _, err := term.GetSize(fd); err == nil && w > 20 {
		opts.Width = w
	}
	return opts
}

type styles struct {
	color     bool
	title     lipgloss.Style
	muted     lipgloss.Style
	score     lipgloss.Style
	box       lipgloss.Style
	byType    map[highlight.MatchType]lipgloss.Style
	plainMark map[highlight.MatchType][2]string
}

func newStyles(w io.Writer, theme *Theme, color bool) *styles {
	r := lipgloss.NewRenderer(w)
	return &styles{
		color: color,
		title: r.NewStyle().Bold(true).Foreground(theme.Primary),
		muted: r.NewStyle().Foreground(theme.Muted),
		score: r.NewStyle().Bold(true),
		box: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		byType: map[highlight.MatchType]lipgloss.Style{
			highlight.MatchExact:     r.NewStyle().Bold(true).Foreground(theme.Exact),
			highlight.MatchPartial:   r.NewStyle().Foreground(theme.Partial),
			highlight.MatchParagraph: r.NewStyle().Underline(true).Foreground(theme.Paragraph),
		},
		plainMark: map[highlight.MatchType][2]string{
			highlight.MatchExact:     {"[[", "]]"},
			highlight.MatchPartial:   {"[", "]"},
			highlight.MatchParagraph: {"{", "}"},
		},
	}
}

func (s *styles) paint(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

func (s *styles) mark(mt highlight.MatchType, text string) string {
	if s.color {
		return s.byType[mt].Render(text)
	}
	m := s.plainMark[mt]
	return m[0] + text + m[1]
}

// Score prints just the overall score
func Score(w io.Writer, r *types.Report) error {
	_, err := fmt.Fprintf(w, "%.2f\n", r.OverallScore)
	return err
}

// Report prints a summary of r followed by one line per highlight
func Report(w io.Writer, r *types.Report, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	st := newStyles(w, DefaultTheme(), opts.Color)

	var b strings.Builder
	header := fmt.Sprintf("%s  %s  %s\n%s %s",
		st.paint(st.title, "copymatch"),
		r.SourceFileName, st.paint(st.muted, "vs "+r.TargetFileName),
		st.paint(st.score, fmt.Sprintf("%.2f%%", r.OverallScore)),
		st.paint(st.muted, fmt.Sprintf("(rabin-karp %.2f, jaccard %.2f, engine %s)", r.RabinKarpScore, r.JaccardScore, r.Engine)))
	if opts.Color {
		b.WriteString(st.box.Render(header))
	} else {
		b.WriteString(header)
	}
	b.WriteString("\n")

	counts := r.CountByType()
	fmt.Fprintf(&b, "%d highlights: %d exact, %d partial, %d paragraph\n",
		len(r.Highlights), counts[highlight.MatchExact], counts[highlight.MatchPartial], counts[highlight.MatchParagraph])
	if r.Truncated {
		b.WriteString(st.paint(st.muted, "documents were cut to the configured size limit") + "\n")
	}
	if r.DroppedMatches > 0 {
		b.WriteString(st.paint(st.muted, fmt.Sprintf("%d malformed matches skipped", r.DroppedMatches)) + "\n")
	}

	for _, h := range r.Highlights {
		b.WriteString("\n")
		b.WriteString(st.paint(st.muted, lineRef(h)))
		b.WriteString("\n  ")
		b.WriteString(st.mark(h.MatchType, excerpt(h.TextB, opts.Width-6)))
		b.WriteString("\n")
	}

	if opts.Annotate && r.TargetFullText != "" {
		b.WriteString("\n")
		b.WriteString(annotate(r.TargetFullText, r.Highlights, st))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func lineRef(h highlight.Highlight) string {
	return fmt.Sprintf("%s %s  <-  %s %s  (%s)",
		h.TargetFile, lineRange(h.LineStartB, h.LineEndB),
		h.SourceFile, lineRange(h.LineStartA, h.LineEndA),
		h.MatchType)
}

func lineRange(start, end int) string {
	if end <= start {
		return fmt.Sprintf("L%d", start)
	}
	return fmt.Sprintf("L%d-%d", start, end)
}

// excerpt flattens s to one line of at most width runes
func excerpt(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width < 4 || utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// annotate marks every highlighted target range of text. Overlapping ranges
// are clipped so each byte is marked once, earliest start first.
func annotate(text string, hs []highlight.Highlight, st *styles) string {
	sorted := make([]highlight.Highlight, len(hs))
	copy(sorted, hs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var b strings.Builder
	pos := 0
	for _, h := range sorted {
		start, end := max(h.Start, pos), min(h.End, len(text))
		if start >= end {
			continue
		}
		b.WriteString(text[pos:start])
		b.WriteString(st.mark(h.MatchType, text[start:end]))
		pos = end
	}
	b.WriteString(text[pos:])
	return b.String()
}
