package renderview

import (
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/zjrosen/scrollcode/internal/diffiter"
	"github.com/zjrosen/scrollcode/internal/diffmodel"
	"github.com/zjrosen/scrollcode/internal/highlight"
	"github.com/zjrosen/scrollcode/internal/styles"
)

// treeBuilder walks a diff once via diffiter.Walk, building the Gutter,
// Deletions, Additions, and Unified columns in lockstep — three parallel
// builders sharing one pass, one gutter entry and one or two content
// entries appended per line.
type treeBuilder struct {
	diff        *diffmodel.FileDiff
	oldRows     [][]highlight.Token
	newRows     [][]highlight.Token
	anns        map[int]Annotation
	style       diffiter.DiffStyle
	expanded    diffiter.ExpandedRegions
	chromaStyle *chroma.Style
}

func (b *treeBuilder) build(opts RenderOptions) (Tree, error) {
	tree := Tree{Separators: map[string]Row{}}

	walkOpts := diffiter.WalkOptions{
		Style:              b.style,
		Start:              0,
		Total:              diffiter.Unbounded,
		Expanded:           b.expanded,
		CollapsedThreshold: opts.CollapsedThreshold,
	}

	err := diffiter.Walk(b.diff, walkOpts, func(rec diffiter.Record) bool {
		if rec.Type == diffiter.RecordCollapsed {
			b.appendCollapsed(&tree, rec, opts.Width)
			return true
		}
		if b.style == diffiter.StyleUnified {
			b.appendUnifiedLine(&tree, rec)
		} else {
			b.appendSplitLine(&tree, rec)
		}
		return true
	})
	if err != nil {
		return Tree{}, err
	}
	return tree, nil
}

func (b *treeBuilder) appendCollapsed(tree *Tree, rec diffiter.Record, width int) {
	slot := fmt.Sprintf("collapsed-%d", rec.HunkIndex)
	text := truncateToWidth(fmt.Sprintf("⋯ %d collapsed lines ⋯", rec.CollapsedBefore), width)
	row := Row{
		Kind:    RowSeparator,
		Slot:    slot,
		Content: []Cell{{Text: text, Style: styles.CollapsedStyle}},
	}
	tree.Separators[slot] = row
	tree.Gutter.Rows = append(tree.Gutter.Rows, row)
	if b.style == diffiter.StyleUnified {
		tree.Unified.Rows = append(tree.Unified.Rows, row)
		return
	}
	tree.Deletions.Rows = append(tree.Deletions.Rows, row)
	tree.Additions.Rows = append(tree.Additions.Rows, row)
}

// appendUnifiedLine handles one Record in StyleUnified: a context line
// shares identity on both sides so it is rendered once (from the new side's
// tokens), while a change line is a single-sided row prefixed "+"/"-".
func (b *treeBuilder) appendUnifiedLine(tree *Tree, rec diffiter.Record) {
	switch {
	case rec.Deletion != nil && rec.Addition != nil:
		row := b.contentRow(rec.Addition, b.newRows, styles.ContextStyle, "")
		tree.Gutter.Rows = append(tree.Gutter.Rows, gutterRow(rec.Addition.UnifiedIndex, 0, rec.Deletion.SideNumber, rec.Addition.SideNumber))
		tree.Unified.Rows = append(tree.Unified.Rows, row)
	case rec.Deletion != nil:
		row := b.contentRow(rec.Deletion, b.oldRows, styles.DeletionStyle, "-")
		tree.Gutter.Rows = append(tree.Gutter.Rows, gutterRow(rec.Deletion.UnifiedIndex, 0, rec.Deletion.SideNumber, 0))
		tree.Unified.Rows = append(tree.Unified.Rows, row)
	case rec.Addition != nil:
		row := b.contentRow(rec.Addition, b.newRows, styles.AdditionStyle, "+")
		tree.Gutter.Rows = append(tree.Gutter.Rows, gutterRow(rec.Addition.UnifiedIndex, 0, 0, rec.Addition.SideNumber))
		tree.Unified.Rows = append(tree.Unified.Rows, row)
	}
}

// appendSplitLine handles one Record in StyleSplit/StyleBoth: deletion and
// addition render into their own columns side by side. When a change run
// has more lines on one side than the other, diffiter yields a Record with
// only one of Deletion/Addition set — the other column gets a RowBuffer
// filler so both columns stay the same length despite the imbalance.
func (b *treeBuilder) appendSplitLine(tree *Tree, rec diffiter.Record) {
	switch {
	case rec.Deletion != nil && rec.Addition != nil:
		tree.Gutter.Rows = append(tree.Gutter.Rows, gutterRow(0, rec.Deletion.SplitIndex, rec.Deletion.SideNumber, rec.Addition.SideNumber))
		tree.Deletions.Rows = append(tree.Deletions.Rows, b.contentRow(rec.Deletion, b.oldRows, diffStyleOf(rec, styles.DeletionStyle), ""))
		tree.Additions.Rows = append(tree.Additions.Rows, b.contentRow(rec.Addition, b.newRows, diffStyleOf(rec, styles.AdditionStyle), ""))
	case rec.Deletion != nil:
		tree.Gutter.Rows = append(tree.Gutter.Rows, gutterRow(0, rec.Deletion.SplitIndex, rec.Deletion.SideNumber, 0))
		tree.Deletions.Rows = append(tree.Deletions.Rows, b.contentRow(rec.Deletion, b.oldRows, styles.DeletionStyle, ""))
		tree.Additions.Rows = append(tree.Additions.Rows, bufferRow(rec.Deletion.SplitIndex))
	case rec.Addition != nil:
		tree.Gutter.Rows = append(tree.Gutter.Rows, gutterRow(0, rec.Addition.SplitIndex, 0, rec.Addition.SideNumber))
		tree.Additions.Rows = append(tree.Additions.Rows, b.contentRow(rec.Addition, b.newRows, styles.AdditionStyle, ""))
		tree.Deletions.Rows = append(tree.Deletions.Rows, bufferRow(rec.Addition.SplitIndex))
	}
}

// diffStyleOf returns the context style for a context Record (both sides
// present but unchanged) and changed otherwise.
func diffStyleOf(rec diffiter.Record, changed lipgloss.Style) lipgloss.Style {
	if rec.Type == diffiter.RecordContext {
		return styles.ContextStyle
	}
	return changed
}

func gutterRow(lineUnified, lineSplit, oldNum, newNum int) Row {
	return Row{Kind: RowLine, LineUnified: lineUnified, LineSplit: lineSplit, Content: []Cell{gutterCell(oldNum, newNum, styles.GutterStyle)}}
}

func bufferRow(lineSplit int) Row {
	return Row{Kind: RowBuffer, LineSplit: lineSplit, BufferSize: 1, Content: []Cell{{Text: "", Style: styles.BufferRowStyle}}}
}

func (b *treeBuilder) contentRow(ref *diffiter.LineRef, rows [][]highlight.Token, style lipgloss.Style, prefix string) Row {
	idx := ref.SideNumber - 1
	var tokens []highlight.Token
	if idx >= 0 && idx < len(rows) {
		tokens = rows[idx]
	}

	var cells []Cell
	if prefix != "" {
		cells = append(cells, Cell{Text: prefix, Style: style})
	}
	for _, t := range tokens {
		cells = append(cells, Cell{Text: t.Text, Style: cellStyle(b.chromaStyle, t.Class, style)})
	}

	row := Row{Kind: RowLine, LineUnified: ref.UnifiedIndex, LineSplit: ref.SplitIndex, NoNewline: ref.NoTrailingNewline, Content: cells}
	if b.anns != nil {
		if a, ok := b.anns[ref.UnifiedIndex]; ok {
			row.Annotation = &a
		}
	}
	return row
}
