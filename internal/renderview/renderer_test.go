package renderview

import (
	"context"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
	"github.com/zjrosen/scrollcode/internal/diffiter"
	"github.com/zjrosen/scrollcode/internal/diffmodel"
)

func parseTestDiff(t *testing.T) *diffmodel.FileDiff {
	t.Helper()
	patch := `--- a/file.go
+++ b/file.go
@@ -1,3 +1,4 @@
 package main
-func old() {}
+func renamed() {}
+func added() {}
 var x int
`
	old := diffmodel.FileContents{Name: "file.go", CacheKey: "old", Text: "package main\nfunc old() {}\nvar x int\n"}
	nw := diffmodel.FileContents{Name: "file.go", CacheKey: "new", Text: "package main\nfunc renamed() {}\nfunc added() {}\nvar x int\n"}
	diff, err := diffmodel.ParseUnified(old, nw, patch)
	require.NoError(t, err)
	return diff
}

func TestRenderFile_EmptyIsNotReady(t *testing.T) {
	r := NewRenderer(nil, nil)
	tree, ready := r.RenderFile(context.Background(), diffmodel.FileContents{})
	require.False(t, ready)
	require.Empty(t, tree.Unified.Rows)
}

func TestRenderFile_ProducesOneRowPerLine(t *testing.T) {
	r := NewRenderer(nil, nil)
	file := diffmodel.FileContents{Name: "a.go", CacheKey: "a", Language: "go", Text: "package main\nfunc f() {}\n"}
	tree, ready := r.RenderFile(context.Background(), file)
	require.True(t, ready)
	require.Len(t, tree.Unified.Rows, 2)
	require.Len(t, tree.Gutter.Rows, 2)
	require.Equal(t, "a.go", tree.Header.Content[0].Text)
}

func TestRenderFile_CachesUnchangedCall(t *testing.T) {
	r := NewRenderer(nil, nil)
	file := diffmodel.FileContents{Name: "a.go", CacheKey: "a", Text: "one\ntwo\n"}
	first, _ := r.RenderFile(context.Background(), file)
	second, _ := r.RenderFile(context.Background(), file)
	require.Equal(t, len(first.Unified.Rows), len(second.Unified.Rows))
}

func TestRenderDiff_UnifiedStyleEmitsChangeRows(t *testing.T) {
	diff := parseTestDiff(t)
	r := NewRenderer(nil, nil)
	r.SetOptions(RenderOptions{Style: diffiter.StyleUnified, Width: 80})

	tree, ready := r.RenderDiff(context.Background(), diff)
	require.True(t, ready)
	require.NotEmpty(t, tree.Unified.Rows)
	require.Equal(t, len(tree.Unified.Rows), len(tree.Gutter.Rows))

	var deletions, additions int
	for _, row := range tree.Unified.Rows {
		if len(row.Content) > 0 && row.Content[0].Text == "-" {
			deletions++
		}
		if len(row.Content) > 0 && row.Content[0].Text == "+" {
			additions++
		}
	}
	require.Equal(t, 1, deletions)
	require.Equal(t, 2, additions)
}

func TestRenderDiff_SplitStyleCoalescesUnpairedRows(t *testing.T) {
	diff := parseTestDiff(t)
	r := NewRenderer(nil, nil)
	r.SetOptions(RenderOptions{Style: diffiter.StyleSplit, Width: 80})

	tree, ready := r.RenderDiff(context.Background(), diff)
	require.True(t, ready)
	require.Equal(t, len(tree.Deletions.Rows), len(tree.Additions.Rows))

	var bufferRows int
	for _, row := range tree.Deletions.Rows {
		if row.Kind == RowBuffer {
			bufferRows++
		}
	}
	require.Equal(t, 1, bufferRows)
}

func TestRenderDiff_NilIsNotReady(t *testing.T) {
	r := NewRenderer(nil, nil)
	_, ready := r.RenderDiff(context.Background(), nil)
	require.False(t, ready)
}

func TestRenderDiff_AnnotationAttachedToLine(t *testing.T) {
	diff := parseTestDiff(t)
	r := NewRenderer(nil, nil)
	r.SetLineAnnotations(map[int]Annotation{0: {Text: "note"}})

	tree, ready := r.RenderDiff(context.Background(), diff)
	require.True(t, ready)
	require.NotNil(t, tree.Unified.Rows[0].Annotation)
	require.Equal(t, "note", tree.Unified.Rows[0].Annotation.Text)
}

func TestRenderDiff_ExpandHunkInvalidatesCache(t *testing.T) {
	diff := parseTestDiff(t)
	r := NewRenderer(nil, nil)
	before, _ := r.RenderDiff(context.Background(), diff)
	r.ExpandHunk(0)
	require.Nil(t, r.last)
	after, _ := r.RenderDiff(context.Background(), diff)
	require.Equal(t, len(before.Unified.Rows), len(after.Unified.Rows))
}

func TestRenderFile_TokensCarryDistinctSyntaxColors(t *testing.T) {
	r := NewRenderer(nil, nil)
	r.SetThemeType("monokai")
	file := diffmodel.FileContents{Name: "a.go", CacheKey: "a", Language: "go", Text: "func f() {}\n"}

	tree, ready := r.RenderFile(context.Background(), file)
	require.True(t, ready)
	require.NotEmpty(t, tree.Unified.Rows[0].Content)

	colors := map[lipgloss.Color]bool{}
	for _, cell := range tree.Unified.Rows[0].Content {
		fg, ok := cell.Style.GetForeground().(lipgloss.Color)
		if ok {
			colors[fg] = true
		}
	}
	require.Greater(t, len(colors), 1, "expected more than one foreground color across a highlighted line's cells")
}
