package instance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zjrosen/scrollcode/internal/diffiter"
	"github.com/zjrosen/scrollcode/internal/diffmodel"
	"github.com/zjrosen/scrollcode/internal/renderview"
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
	diff.ResolveViewSpace()
	return diff
}

func renderOpts(style diffiter.DiffStyle, rng renderview.RenderRange) RenderOpts {
	return RenderOpts{Render: renderview.RenderOptions{Style: style, Width: 80}, Range: rng}
}

func TestFileInstance_ApproximateHeightCountsLines(t *testing.T) {
	file := diffmodel.FileContents{Name: "a.go", CacheKey: "a", Text: "one\ntwo\nthree\n"}
	inst := NewFileInstance(file, renderview.NewRenderer(nil, nil), DefaultMetrics())
	require.Equal(t, 3+DefaultMetrics().DiffHeaderHeight+DefaultMetrics().FileGap, inst.ApproximateHeight())
}

func TestFileInstance_FullThenPartialRender(t *testing.T) {
	file := diffmodel.FileContents{Name: "a.go", CacheKey: "a", Text: "one\ntwo\nthree\nfour\nfive\n"}
	inst := NewFileInstance(file, renderview.NewRenderer(nil, nil), DefaultMetrics())

	changed, err := inst.Render(context.Background(), renderOpts(diffiter.StyleUnified, renderview.RenderRange{Start: 0, Total: 3}))
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, inst.Tree().Unified.Rows, 3)

	changed, err = inst.Render(context.Background(), renderOpts(diffiter.StyleUnified, renderview.RenderRange{Start: 1, Total: 3}))
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, inst.Tree().Unified.Rows, 3)
	require.Equal(t, 1, inst.Tree().Unified.Rows[0].LineUnified)
	require.Equal(t, len(inst.Tree().Unified.Rows), len(inst.Tree().Gutter.Rows))
}

func TestFileInstance_SameRangeIsNoOp(t *testing.T) {
	file := diffmodel.FileContents{Name: "a.go", CacheKey: "a", Text: "one\ntwo\n"}
	inst := NewFileInstance(file, renderview.NewRenderer(nil, nil), DefaultMetrics())
	rng := renderview.RenderRange{Start: 0, Total: 2}

	changed, err := inst.Render(context.Background(), renderOpts(diffiter.StyleUnified, rng))
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = inst.Render(context.Background(), renderOpts(diffiter.StyleUnified, rng))
	require.NoError(t, err)
	require.False(t, changed)
}

func TestFileInstance_RenderAfterCleanUpErrors(t *testing.T) {
	file := diffmodel.FileContents{Name: "a.go", CacheKey: "a", Text: "one\n"}
	inst := NewFileInstance(file, renderview.NewRenderer(nil, nil), DefaultMetrics())
	inst.CleanUp()

	_, err := inst.Render(context.Background(), renderOpts(diffiter.StyleUnified, renderview.RenderRange{Start: 0, Total: 1}))
	require.ErrorIs(t, err, ErrInstanceClosed)
}

func TestDiffInstance_HunkBoundsClampRenderRange(t *testing.T) {
	diff := parseTestDiff(t)
	inst := NewDiffInstance(diff, diffiter.StyleUnified, renderview.NewRenderer(nil, nil), DefaultMetrics())

	total, err := diffiter.CountLines(diff, diffiter.WalkOptions{Style: diffiter.StyleUnified})
	require.NoError(t, err)

	rng := inst.DeriveRenderRange(Window{Top: 1, Bottom: 2}, 0)
	require.Equal(t, 0, rng.Start)
	require.Equal(t, total, rng.Total)
}

func TestDiffInstance_ExpandHunkForcesRebuild(t *testing.T) {
	diff := parseTestDiff(t)
	inst := NewDiffInstance(diff, diffiter.StyleUnified, renderview.NewRenderer(nil, nil), DefaultMetrics())

	total, err := diffiter.CountLines(diff, diffiter.WalkOptions{Style: diffiter.StyleUnified})
	require.NoError(t, err)
	rng := renderview.RenderRange{Start: 0, Total: total}

	_, err = inst.Render(context.Background(), renderOpts(diffiter.StyleUnified, rng))
	require.NoError(t, err)
	require.True(t, inst.rendered)

	inst.ExpandHunk(0)
	require.False(t, inst.rendered)

	changed, err := inst.Render(context.Background(), renderOpts(diffiter.StyleUnified, rng))
	require.NoError(t, err)
	require.True(t, changed)
}

func TestDiffInstance_SplitStyleKeepsColumnsInSync(t *testing.T) {
	diff := parseTestDiff(t)
	inst := NewDiffInstance(diff, diffiter.StyleSplit, renderview.NewRenderer(nil, nil), DefaultMetrics())

	total, err := diffiter.CountLines(diff, diffiter.WalkOptions{Style: diffiter.StyleSplit})
	require.NoError(t, err)

	_, err = inst.Render(context.Background(), renderOpts(diffiter.StyleSplit, renderview.RenderRange{Start: 0, Total: total}))
	require.NoError(t, err)
	require.Equal(t, len(inst.Tree().Deletions.Rows), len(inst.Tree().Additions.Rows))
	require.Equal(t, len(inst.Tree().Deletions.Rows), len(inst.Tree().Gutter.Rows))
}

func TestBase_SetMeasuredHeightAffectsApproximateHeight(t *testing.T) {
	file := diffmodel.FileContents{Name: "a.go", CacheKey: "a", Text: "one\ntwo\n"}
	inst := NewFileInstance(file, renderview.NewRenderer(nil, nil), DefaultMetrics())
	before := inst.ApproximateHeight()

	inst.SetMeasuredHeight(0, 3)
	require.Equal(t, before+2, inst.ApproximateHeight())

	inst.SetMeasuredHeight(0, DefaultMetrics().LineHeight)
	require.Equal(t, before, inst.ApproximateHeight())
}
