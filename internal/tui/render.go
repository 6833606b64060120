package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/padding"

	"github.com/zjrosen/scrollcode/internal/diffiter"
	"github.com/zjrosen/scrollcode/internal/renderview"
)

// flattenTree joins a Tree's parallel columns into plain lines of styled
// text for the terminal, the rendering step spec.md leaves to "the DOM" —
// here there is no DOM, so instead of mutating one, flattenTree walks the
// row slices Bubble Tea's View() will concatenate this frame.
func flattenTree(tree renderview.Tree, style diffiter.DiffStyle, width int) []string {
	if style == diffiter.StyleUnified {
		return flattenUnified(tree)
	}
	return flattenSplit(tree, width)
}

func flattenUnified(tree renderview.Tree) []string {
	lines := make([]string, 0, len(tree.Unified.Rows))
	for i, row := range tree.Unified.Rows {
		var gutter renderview.Row
		if i < len(tree.Gutter.Rows) {
			gutter = tree.Gutter.Rows[i]
		}
		lines = append(lines, joinCells(gutter.Content)+joinCells(row.Content))
	}
	return lines
}

func flattenSplit(tree renderview.Tree, width int) []string {
	half := width / 2
	if half < 1 {
		half = 1
	}
	n := len(tree.Deletions.Rows)
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var gutter renderview.Row
		if i < len(tree.Gutter.Rows) {
			gutter = tree.Gutter.Rows[i]
		}
		left := lipgloss.NewStyle().MaxWidth(half).Render(joinCells(gutter.Content) + joinCells(tree.Deletions.Rows[i].Content))
		var right string
		if i < len(tree.Additions.Rows) {
			right = lipgloss.NewStyle().MaxWidth(half).Render(joinCells(tree.Additions.Rows[i].Content))
		}
		// padding.String is rune-width aware, unlike padding with raw
		// spaces, so a shorter deletion column still lines up its " │ "
		// separator under the same screen column on every row.
		left = padding.String(left, uint(half))
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, left, " │ ", right))
	}
	return lines
}

func joinCells(cells []renderview.Cell) string {
	var sb strings.Builder
	for _, c := range cells {
		sb.WriteString(c.Style.Render(c.Text))
	}
	return sb.String()
}
