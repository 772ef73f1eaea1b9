package buffer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"copymatch/highlight"
	"copymatch/logger"
	"copymatch/utils"

	"github.com/neovim/go-client/nvim"
)

// Highlight groups painted for each match type. They default to links so
// colour schemes can override them.
const (
	GroupExact     = "CopymatchExact"
	GroupPartial   = "CopymatchPartial"
	GroupParagraph = "CopymatchParagraph"
)

var defaultLinks = map[string]string{
	GroupExact:     "DiffDelete",
	GroupPartial:   "DiffChange",
	GroupParagraph: "DiffText",
}

// GroupFor returns the highlight group for a match type
func GroupFor(mt highlight.MatchType) string {
	switch mt {
	case highlight.MatchExact:
		return GroupExact
	case highlight.MatchParagraph:
		return GroupParagraph
	default:
		return GroupPartial
	}
}

type Config struct {
	Namespace string
	// MaxChars bounds the synced text around the cursor (0 = whole buffer)
	MaxChars int
}

// NvimBuffer is one editor buffer taking part in a comparison
type NvimBuffer struct {
	client *nvim.Nvim // stored internally, set via SetClient

	id    nvim.Buffer
	name  string
	lines []string
	row   int // 1-indexed cursor line, 1 when no window shows the buffer

	// lineOffset is how many buffer lines precede lines[0] after trimming
	lineOffset int
	trimmed    bool

	nsID   int
	config Config
}

func New(id nvim.Buffer, config Config) *NvimBuffer {
	if config.Namespace == "" {
		config.Namespace = "copymatch"
	}
	return &NvimBuffer{
		id:     id,
		lines:  []string{},
		row:    1,
		nsID:   -1,
		config: config,
	}
}

// SetClient stores the nvim client for all buffer operations
func (b *NvimBuffer) SetClient(n *nvim.Nvim) {
	b.client = n
}

func (b *NvimBuffer) ID() nvim.Buffer { return b.id }

func (b *NvimBuffer) Lines() []string { return b.lines }

func (b *NvimBuffer) Row() int { return b.row }

func (b *NvimBuffer) LineOffset() int { return b.lineOffset }

func (b *NvimBuffer) Trimmed() bool { return b.trimmed }

// Name returns the base name of the buffer's file, empty for unnamed buffers
func (b *NvimBuffer) Name() string {
	if b.name == "" {
		return ""
	}
	return filepath.Base(b.name)
}

// Text returns the synced lines joined by "\n"
func (b *NvimBuffer) Text() string {
	return strings.Join(b.lines, "\n")
}

// Sync reads the buffer's name, lines and cursor line from the editor
func (b *NvimBuffer) Sync() error {
	defer logger.Trace("buffer.Sync")()
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}

	// Use batch API to make all calls in a single round-trip
	batch := b.client.NewBatch()

	var name string
	var lines [][]byte
	var row int

	batch.BufferName(b.id, &name)
	batch.BufferLines(b.id, 0, -1, false, &lines)
	batch.ExecLua(`
		local win = vim.fn.bufwinid(...)
		if win == -1 then return 1 end
		return vim.api.nvim_win_get_cursor(win)[1]
	`, &row, int(b.id))

	if err := batch.Execute(); err != nil {
		logger.Error("error executing sync batch: %v", err)
		return err
	}

	linesStr := make([]string, len(lines))
	for i, line := range lines {
		linesStr[i] = string(line)
	}

	b.name = name
	b.setLines(linesStr, row)
	return nil
}

// setLines stores lines, trimmed to MaxChars around the cursor row
func (b *NvimBuffer) setLines(lines []string, row int) {
	if row < 1 {
		row = 1
	}
	b.row = row
	b.lineOffset = 0
	b.trimmed = false

	if b.config.MaxChars <= 0 {
		b.lines = lines
		return
	}
	kept, _, offset, trimmed := utils.TrimLinesAround(lines, row-1, b.config.MaxChars)
	b.lines = kept
	b.lineOffset = offset
	b.trimmed = trimmed
	if trimmed {
		logger.Debug("buffer %d trimmed to lines %d-%d", b.id, offset+1, offset+len(kept))
	}
}

// Paint replaces the buffer's highlights with extmarks for hs. Offsets in hs
// are byte offsets into Text().
func (b *NvimBuffer) Paint(hs []highlight.Highlight) error {
	defer logger.Trace("buffer.Paint")()
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	if err := b.ensureNamespace(); err != nil {
		return err
	}

	batch := b.client.NewBatch()
	for group, link := range defaultLinks {
		batch.ExecLua(`vim.api.nvim_set_hl(0, select(1, ...), { link = select(2, ...), default = true })`, nil, group, link)
	}
	b.clearNamespace(batch)

	marks := extmarksFor(b.lines, hs, b.lineOffset)
	ids := make([]int, len(marks))
	for i, m := range marks {
		batch.SetBufferExtmark(b.id, b.nsID, m.Row, m.Col, map[string]any{
			"end_row":  m.EndRow,
			"end_col":  m.EndCol,
			"hl_group": m.Group,
			"priority": m.Priority,
		}, &ids[i])
	}

	if err := batch.Execute(); err != nil {
		logger.Error("error painting %d extmarks: %v", len(marks), err)
		return err
	}
	logger.Debug("buffer %d: painted %d extmarks", b.id, len(marks))
	return nil
}

// Clear removes every highlight painted in the buffer
func (b *NvimBuffer) Clear() error {
	if b.client == nil {
		return fmt.Errorf("nvim client not set")
	}
	if err := b.ensureNamespace(); err != nil {
		return err
	}
	batch := b.client.NewBatch()
	b.clearNamespace(batch)
	return batch.Execute()
}

func (b *NvimBuffer) ensureNamespace() error {
	if b.nsID >= 0 {
		return nil
	}
	nsID, err := b.client.CreateNamespace(b.config.Namespace)
	if err != nil {
		return fmt.Errorf("failed to create namespace %q: %w", b.config.Namespace, err)
	}
	b.nsID = nsID
	return nil
}

func (b *NvimBuffer) clearNamespace(batch *nvim.Batch) {
	batch.ClearBufferNamespace(b.id, b.nsID, 0, -1)
}

// Extmark is a highlighted range in 0-indexed buffer rows and byte columns
type Extmark struct {
	Row, Col       int
	EndRow, EndCol int
	Group          string
	Priority       int
}

// extmarksFor converts target byte ranges over strings.Join(lines, "\n") into
// extmarks. offset is added to every row.
func extmarksFor(lines []string, hs []highlight.Highlight, offset int) []Extmark {
	if len(lines) == 0 {
		return nil
	}
	starts := make([]int, len(lines))
	total := 0
	for i, line := range lines {
		starts[i] = total
		total += len(line) + 1
	}
	textLen := total - 1

	locate := func(pos int) (int, int) {
		pos = max(0, min(pos, textLen))
		row := sort.Search(len(starts), func(i int) bool { return starts[i] > pos }) - 1
		row = max(0, row)
		return row, min(pos-starts[row], len(lines[row]))
	}

	marks := make([]Extmark, 0, len(hs))
	for _, h := range hs {
		if h.End <= h.Start || h.Start >= textLen {
			continue
		}
		row, col := locate(h.Start)
		endRow, endCol := locate(h.End - 1)
		endCol = min(endCol+1, len(lines[endRow]))
		marks = append(marks, Extmark{
			Row:      row + offset,
			Col:      col,
			EndRow:   endRow + offset,
			EndCol:   endCol,
			Group:    GroupFor(h.MatchType),
			Priority: priorityFor(h.MatchType),
		})
	}
	return marks
}

// Paragraph highlights sit under line-local ones
func priorityFor(mt highlight.MatchType) int {
	if mt == highlight.MatchParagraph {
		return 100
	}
	return 110
}
