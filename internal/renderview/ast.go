// Package renderview builds an inspectable row tree from a file or diff and
// its highlighted tokens. It is the Go stand-in for a DOM: every Row carries
// the identity fields (LineUnified, LineSplit) a data-line-index attribute
// would, so internal/reconcile can diff trees by field instead of by
// querying a live tree.
package renderview

import "github.com/charmbracelet/lipgloss"

// RowKind identifies what a Row represents.
type RowKind int

const (
	RowLine RowKind = iota
	RowSeparator
	RowBuffer
	RowHeader
)

// Cell is one styled span within a Row's gutter or content.
type Cell struct {
	Text  string
	Style lipgloss.Style
}

// Annotation is an out-of-band note attached to a line (e.g. a review
// comment), collapsed onto its owning row per style (unified merges same-
// line annotations from both sides; split keeps one per side).
type Annotation struct {
	Slot string
	Text string
}

// Row is one rendered line of output, belonging to exactly one Column.
// LineUnified/LineSplit are the row's permanent identity in the diff's
// view-space (see diffiter.LineRef); Slot names a row uniquely within its
// Column for separator/buffer rows that have no natural line index (e.g.
// "hunk-separator-unified-3"). A Gutter-column Row's Content holds the
// gutter's own cells (line number, change marker); a content-column Row's
// Content holds the highlighted line text.
type Row struct {
	Kind        RowKind
	LineUnified int
	LineSplit   int
	Slot        string
	Content     []Cell
	BufferSize  int
	Annotation  *Annotation
	NoNewline   bool
}

// Column is an ordered sequence of Rows — one side of a split view, or the
// single stream of a unified view.
type Column struct {
	Rows []Row
}

// RenderRange is the window of rows, in visual-row space, that a Tree
// actually covers. It is the renderview-side half of what diffiter.WalkOptions
// consumes (Start/Total), carried alongside a Tree so a caller comparing two
// renders knows how much of each to treat as overlapping.
type RenderRange struct {
	Start int
	Total int
}

// Tree is the full render output for one RenderFile/RenderDiff call.
// Deletions/Additions are populated for split-style diffs, Unified for
// unified-style diffs and plain files; Gutter mirrors whichever of those is
// in use. Separators holds hunk/collapsed-region marker rows keyed by slot.
type Tree struct {
	Header     *Row
	Gutter     Column
	Deletions  Column
	Additions  Column
	Unified    Column
	Separators map[string]Row
}
