// Package instance implements the per-file render lifecycle: height
// estimation, render-range derivation against a shared scroll window, and
// the no-op/partial/full render decision for one of many instances living
// in a shared coordinate space owned by internal/virtualizer.
package instance

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/scrollcode/internal/diffiter"
	"github.com/zjrosen/scrollcode/internal/reconcile"
	"github.com/zjrosen/scrollcode/internal/renderview"
)

// ErrInstanceClosed is returned by Render when called after CleanUp.
var ErrInstanceClosed = errors.New("instance: render requested after cleanup")

// Window is the visible band of the shared scroll coordinate space, in rows,
// that internal/virtualizer computes once per frame and hands to every
// instance it owns. It lives here (not in virtualizer) so instance has no
// import-cycle back to its own coordinator.
type Window struct {
	Top    int
	Bottom int
}

// Metrics mirrors spec.md's VirtualFileMetrics: terminal-row heights used to
// approximate a file or diff's total height before anything has actually
// been rendered and measured.
type Metrics struct {
	LineHeight          int // rows per content line; almost always 1 in a terminal
	HunkLineCount       int // assumed rows for an unexpanded hunk separator
	HunkSeparatorHeight int // rows for a measured/expanded hunk separator
	DiffHeaderHeight    int // rows for the file/diff header line
	FileGap             int // rows of blank space after this instance
}

// DefaultMetrics returns the Metrics scrollcode assumes before any line in
// an instance has been individually measured.
func DefaultMetrics() Metrics {
	return Metrics{LineHeight: 1, HunkLineCount: 1, HunkSeparatorHeight: 1, DiffHeaderHeight: 1, FileGap: 1}
}

// SourceAdapter is the seam between the shared render/height engine in this
// package and the two concrete sources it can render: a plain file, or a
// parsed diff. FileInstance and DiffInstance each wrap one.
type SourceAdapter interface {
	// Walk yields one diffiter.Record per visual row in [opts.Start,
	// opts.Start+opts.Total), in the adapter's native DiffStyle.
	Walk(opts diffiter.WalkOptions, yield func(diffiter.Record) bool) error

	// TotalRows returns the adapter's total row count in the given style,
	// ignoring any window.
	TotalRows(style diffiter.DiffStyle) (int, error)

	// HunkBounds returns the [UnifiedLineStart, UnifiedLineStart+Count) (or
	// Split equivalent) row ranges of each atomic render unit, so
	// DeriveRenderRange can clamp a window to whole-hunk boundaries. A plain
	// file has exactly one "hunk" spanning its whole length.
	HunkBounds(style diffiter.DiffStyle) []HunkBound

	// ActiveStyle reports which DiffStyle this adapter is currently rendering
	// in, so DeriveRenderRange/ApproximateHeight query TotalRows/HunkBounds in
	// the same row space Render will actually emit.
	ActiveStyle() diffiter.DiffStyle

	// EmitTree renders this source's whole row tree, unwindowed — the
	// Renderer's own cache makes repeat calls for unchanged content cheap.
	// base windows the result itself (see sliceTree) rather than asking the
	// adapter to render a sub-range.
	EmitTree(ctx context.Context, r *renderview.Renderer, opts renderview.RenderOptions) (renderview.Tree, bool)
}

// HunkBound is one atomic render unit's row extent in view-space.
type HunkBound struct {
	Start int
	Count int
}

// RenderOpts parameterizes one Render call: the full set of renderer knobs
// (style, width, highlighting limits) plus the row range this instance
// should produce.
type RenderOpts struct {
	Render renderview.RenderOptions
	Range  renderview.RenderRange
}

// Instance is the common surface FileInstance and DiffInstance both satisfy.
type Instance interface {
	ApproximateHeight() int
	SetMeasuredHeight(lineSpaceIndex, h int)
	DeriveRenderRange(window Window, fileTop int) renderview.RenderRange
	Render(ctx context.Context, opts RenderOpts) (changed bool, err error)
	Tree() renderview.Tree
	LastRange() renderview.RenderRange
	ExpandHunk(hunkIndex int)
	Invalidate()
	CleanUp()

	// HeaderHeight, OffsetOfLine, and LineAtOffset let a caller (the
	// virtualizer's scroll anchor) locate a specific content line within
	// this instance's own row space in absolute coordinate-space rows,
	// and map back from an absolute offset to the line under it.
	HeaderHeight() int
	OffsetOfLine(line int) int
	LineAtOffset(offset int) int
}

// base implements the render/height engine shared by FileInstance and
// DiffInstance; each embeds one and supplies its own SourceAdapter.
type base struct {
	adapter  SourceAdapter
	renderer *renderview.Renderer
	metrics  Metrics

	heightOverrides map[int]int // lineSpaceIndex -> measured row height, sparse deviations from Metrics.LineHeight

	lastRange renderview.RenderRange
	lastTree  renderview.Tree
	rendered  bool
	closed    bool
}

func newBase(adapter SourceAdapter, renderer *renderview.Renderer, metrics Metrics) base {
	return base{adapter: adapter, renderer: renderer, metrics: metrics}
}

// ApproximateHeight estimates this instance's total row height from Metrics
// alone, falling back to any measured per-row overrides recorded so far.
func (b *base) ApproximateHeight() int {
	total, err := b.adapter.TotalRows(b.adapter.ActiveStyle())
	if err != nil {
		total = 0
	}
	height := b.metrics.DiffHeaderHeight + b.metrics.FileGap
	for i := 0; i < total; i++ {
		if h, ok := b.heightOverrides[i]; ok {
			height += h
			continue
		}
		height += b.metrics.LineHeight
	}
	return height
}

// HeaderHeight returns the row height consumed by this instance's header,
// the fixed offset a content line index sits below.
func (b *base) HeaderHeight() int {
	return b.metrics.DiffHeaderHeight
}

// OffsetOfLine returns the row offset, below this instance's header, at
// which local content-row index line begins — the inverse of LineAtOffset.
func (b *base) OffsetOfLine(line int) int {
	total, err := b.adapter.TotalRows(b.adapter.ActiveStyle())
	if err != nil {
		total = 0
	}
	if line > total {
		line = total
	}
	offset := 0
	for i := 0; i < line; i++ {
		if h, ok := b.heightOverrides[i]; ok {
			offset += h
			continue
		}
		offset += b.metrics.LineHeight
	}
	return offset
}

// LineAtOffset returns the local content-row index whose row band contains
// targetOffset rows into this instance's content, the inverse of
// OffsetOfLine.
func (b *base) LineAtOffset(targetOffset int) int {
	if targetOffset <= 0 {
		return 0
	}
	total, err := b.adapter.TotalRows(b.adapter.ActiveStyle())
	if err != nil {
		total = 0
	}
	offset := 0
	for i := 0; i < total; i++ {
		h := b.metrics.LineHeight
		if ov, ok := b.heightOverrides[i]; ok {
			h = ov
		}
		if offset+h > targetOffset {
			return i
		}
		offset += h
	}
	return total
}

// SetMeasuredHeight records that row i actually rendered to h terminal rows
// instead of Metrics.LineHeight, e.g. because an annotation widened it.
func (b *base) SetMeasuredHeight(lineSpaceIndex, h int) {
	if b.heightOverrides == nil {
		b.heightOverrides = make(map[int]int)
	}
	if h == b.metrics.LineHeight {
		delete(b.heightOverrides, lineSpaceIndex)
		return
	}
	b.heightOverrides[lineSpaceIndex] = h
}

// DeriveRenderRange maps the shared window into this instance's own local
// row range, clamped so the range always starts and ends on a hunk
// boundary (the "anchor-preserving clamp": a partially visible hunk/file
// renders in full rather than cutting a hunk header off mid-hunk).
func (b *base) DeriveRenderRange(window Window, fileTop int) renderview.RenderRange {
	style := b.adapter.ActiveStyle()
	contentTop := fileTop + b.metrics.DiffHeaderHeight
	total, _ := b.adapter.TotalRows(style)
	contentHeight := b.ApproximateHeight() - b.metrics.DiffHeaderHeight - b.metrics.FileGap

	if window.Bottom <= contentTop || window.Top >= contentTop+contentHeight || total == 0 {
		return renderview.RenderRange{}
	}

	localTop := max(0, window.Top-contentTop)
	localBottom := min(contentHeight, window.Bottom-contentTop)

	bounds := b.adapter.HunkBounds(style)
	start, end := localTop, localBottom
	for _, hb := range bounds {
		hEnd := hb.Start + hb.Count
		if hEnd <= localTop || hb.Start >= localBottom {
			continue
		}
		// this hunk overlaps the window: pull the range out to its full extent
		start = min(start, hb.Start)
		end = max(end, hEnd)
	}

	start = max(0, start)
	end = min(total, end)
	if end <= start {
		return renderview.RenderRange{}
	}
	return renderview.RenderRange{Start: start, Total: end - start}
}

// Render applies opts, deciding between a no-op (range unchanged), a
// partial render stitched via reconcile.ApplyPartial, or a full rebuild. A
// panic escaping the adapter (a malformed diff reaching too deep into the
// highlighter, say) is recovered here and reported as an error rather than
// taking down the whole program over one bad file.
func (b *base) Render(ctx context.Context, opts RenderOpts) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			changed, err = false, fmt.Errorf("instance: render panicked: %v", r)
		}
	}()

	if b.closed {
		return false, ErrInstanceClosed
	}

	if b.rendered && opts.Range == b.lastRange {
		return false, nil
	}

	b.renderer.SetOptions(opts.Render)

	if !b.rendered {
		return b.fullRender(ctx, opts)
	}

	merged, ok, rerr := b.tryPartial(ctx, opts)
	if rerr != nil {
		return false, rerr
	}
	if !ok {
		return b.fullRender(ctx, opts)
	}

	b.lastTree = merged
	b.lastRange = opts.Range
	return true, nil
}

func (b *base) fullRender(ctx context.Context, opts RenderOpts) (bool, error) {
	tree, ready := b.adapter.EmitTree(ctx, b.renderer, opts.Render)
	if !ready {
		return false, nil
	}
	b.lastTree = sliceTree(tree, opts.Render.Style, opts.Range)
	b.lastRange = opts.Range
	b.rendered = true
	return true, nil
}

// tryPartial reuses the overlapping slice of every previously rendered
// column and splices in only the newly exposed prefix/suffix rows via
// reconcile, one column at a time. EmitTree always computes a diff's whole
// row tree (its own Renderer cache makes repeat calls for the same content
// cheap), so the "newly rendered" prefix/suffix here are freshly sliced out
// of that tree rather than produced by a separate windowed render pass —
// reconcile still does real work: it preserves row identity across the
// splice and performs the buffer-row merge at the seam.
func (b *base) tryPartial(ctx context.Context, opts RenderOpts) (renderview.Tree, bool, error) {
	if opts.Range == b.lastRange {
		return b.lastTree, true, nil
	}

	full, ready := b.adapter.EmitTree(ctx, b.renderer, opts.Render)
	if !ready {
		return renderview.Tree{}, false, nil
	}

	merged := &renderview.Tree{Header: full.Header, Separators: full.Separators}
	for _, pair := range columnPairs(b.lastTree, full, merged, opts.Render.Style) {
		prefix, suffix := windowEdges(pair.full.Rows, opts.Range, b.lastRange)
		m, ok, err := reconcile.ApplyPartial(b.lastRange, opts.Range, pair.prev.Rows, prefix, suffix)
		if err != nil {
			return renderview.Tree{}, false, err
		}
		if !ok {
			return renderview.Tree{}, false, nil
		}
		*pair.dst = renderview.Column{Rows: m}
	}
	return *merged, true, nil
}

type columnPair struct {
	prev renderview.Column
	full renderview.Column
	dst  *renderview.Column
}

// columnPairs lists every column that moves together for the given style:
// the gutter plus whichever content column(s) apply. Each pair's dst points
// into the caller-owned merged tree so the loop in tryPartial writes
// straight into the value it returns.
func columnPairs(prev, full renderview.Tree, merged *renderview.Tree, style diffiter.DiffStyle) []columnPair {
	pairs := []columnPair{{prev: prev.Gutter, full: full.Gutter, dst: &merged.Gutter}}
	if style == diffiter.StyleUnified {
		pairs = append(pairs, columnPair{prev: prev.Unified, full: full.Unified, dst: &merged.Unified})
	} else {
		pairs = append(pairs,
			columnPair{prev: prev.Deletions, full: full.Deletions, dst: &merged.Deletions},
			columnPair{prev: prev.Additions, full: full.Additions, dst: &merged.Additions},
		)
	}
	return pairs
}

// windowEdges slices the newly exposed prefix/suffix of full (which spans
// absolute positions [0, len(full))) that next covers but prev didn't.
func windowEdges(full []renderview.Row, next, prev renderview.RenderRange) (prefix, suffix []renderview.Row) {
	nextEnd := next.Start + next.Total
	prefixStart := clamp(next.Start, 0, len(full))
	prefixEnd := clamp(max(next.Start, min(nextEnd, prev.Start)), 0, len(full))
	prefix = full[prefixStart:prefixEnd]

	suffixStart := clamp(max(next.Start, prev.Start+prev.Total), 0, len(full))
	suffixEnd := clamp(max(suffixStart, nextEnd), 0, len(full))
	suffix = full[suffixStart:suffixEnd]
	return prefix, suffix
}

// sliceTree trims every positional column in t down to rng, leaving Header
// and Separators (a lookup map, not a positional sequence) untouched.
func sliceTree(t renderview.Tree, style diffiter.DiffStyle, rng renderview.RenderRange) renderview.Tree {
	start, end := rng.Start, rng.Start+rng.Total
	t.Gutter = sliceColumn(t.Gutter, start, end)
	if style == diffiter.StyleUnified {
		t.Unified = sliceColumn(t.Unified, start, end)
	} else {
		t.Deletions = sliceColumn(t.Deletions, start, end)
		t.Additions = sliceColumn(t.Additions, start, end)
	}
	return t
}

func sliceColumn(c renderview.Column, start, end int) renderview.Column {
	start = clamp(start, 0, len(c.Rows))
	end = clamp(end, 0, len(c.Rows))
	if end < start {
		end = start
	}
	return renderview.Column{Rows: c.Rows[start:end]}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func (b *base) Tree() renderview.Tree            { return b.lastTree }
func (b *base) LastRange() renderview.RenderRange { return b.lastRange }

func (b *base) CleanUp() {
	b.closed = true
	b.lastTree = renderview.Tree{}
	b.heightOverrides = nil
}

// forceRebuild discards the cached render so the next Render call goes
// through fullRender regardless of whether opts.Range changed. DiffInstance
// calls this after ExpandHunk changes what a given range's rows look like
// even though the range itself is unchanged.
func (b *base) forceRebuild() {
	b.rendered = false
	b.lastTree = renderview.Tree{}
	b.lastRange = renderview.RenderRange{}
}

// Invalidate discards the cached render the same way forceRebuild does,
// exported so a caller outside this package (internal/tui, reacting to a
// renderer's background highlight completing) can force the next Render
// past the no-op "range unchanged" check.
func (b *base) Invalidate() {
	b.forceRebuild()
}
