package instance

import (
	"context"

	"github.com/zjrosen/scrollcode/internal/diffiter"
	"github.com/zjrosen/scrollcode/internal/diffmodel"
	"github.com/zjrosen/scrollcode/internal/renderview"
)

// FileInstance renders one plain file with no diff markup — the scrollcode
// equivalent of viewing a file outside of review mode.
type FileInstance struct {
	base
	file diffmodel.FileContents
}

// NewFileInstance returns an Instance that renders file through renderer.
func NewFileInstance(file diffmodel.FileContents, renderer *renderview.Renderer, metrics Metrics) *FileInstance {
	fi := &FileInstance{file: file}
	fi.base = newBase(fi, renderer, metrics)
	return fi
}

// SetFile replaces the rendered file (e.g. after a watched file changes on
// disk) and forces the next Render to rebuild from scratch.
func (fi *FileInstance) SetFile(file diffmodel.FileContents) {
	fi.file = file
	fi.forceRebuild()
}

func (fi *FileInstance) Walk(opts diffiter.WalkOptions, yield func(diffiter.Record) bool) error {
	lines := splitFileLines(fi.file.Text)
	start, total := windowBounds(opts.Start, opts.Total, len(lines))
	for i := start; i < start+total; i++ {
		rec := diffiter.Record{
			Type: diffiter.RecordContext,
			Addition: &diffiter.LineRef{
				UnifiedIndex: i,
				SplitIndex:   i,
				SideIndex:    i,
				SideNumber:   i + 1,
			},
		}
		if !yield(rec) {
			return nil
		}
	}
	return nil
}

func (fi *FileInstance) TotalRows(diffiter.DiffStyle) (int, error) {
	return len(splitFileLines(fi.file.Text)), nil
}

// HunkBounds treats a plain file as one atomic render unit spanning its
// whole length — there is no hunk boundary to clamp to.
func (fi *FileInstance) HunkBounds(diffiter.DiffStyle) []HunkBound {
	total := len(splitFileLines(fi.file.Text))
	if total == 0 {
		return nil
	}
	return []HunkBound{{Start: 0, Count: total}}
}

func (fi *FileInstance) EmitTree(ctx context.Context, r *renderview.Renderer, opts renderview.RenderOptions) (renderview.Tree, bool) {
	r.SetOptions(opts)
	return r.RenderFile(ctx, fi.file)
}

// ExpandHunk is a no-op for a plain file: there are no collapsed regions to
// reveal. It exists so FileInstance satisfies Instance.
func (fi *FileInstance) ExpandHunk(int) {}

// ActiveStyle is always StyleUnified: a plain file has no split-view side to
// diverge from it.
func (fi *FileInstance) ActiveStyle() diffiter.DiffStyle { return diffiter.StyleUnified }

func splitFileLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := []string{}
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func windowBounds(start, total, max int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start > max {
		start = max
	}
	if total == diffiter.Unbounded || total < 0 {
		return start, max - start
	}
	if start+total > max {
		total = max - start
	}
	return start, total
}

// DiffInstance renders one parsed diff, tracking its own collapsed-region
// expansion state independently of every other DiffInstance sharing the
// underlying Renderer's Pool/Cache.
type DiffInstance struct {
	base
	diff  *diffmodel.FileDiff
	style diffiter.DiffStyle
}

// NewDiffInstance returns an Instance that renders diff in style through
// renderer.
func NewDiffInstance(diff *diffmodel.FileDiff, style diffiter.DiffStyle, renderer *renderview.Renderer, metrics Metrics) *DiffInstance {
	di := &DiffInstance{diff: diff, style: style}
	di.base = newBase(di, renderer, metrics)
	return di
}

func (di *DiffInstance) Walk(opts diffiter.WalkOptions, yield func(diffiter.Record) bool) error {
	opts.Style = di.style
	return diffiter.Walk(di.diff, opts, yield)
}

func (di *DiffInstance) TotalRows(style diffiter.DiffStyle) (int, error) {
	return diffiter.CountLines(di.diff, diffiter.WalkOptions{Style: style})
}

// HunkBounds reports each parsed hunk's extent in the requested style's row
// space, so DeriveRenderRange never splits a hunk across a render boundary.
func (di *DiffInstance) HunkBounds(style diffiter.DiffStyle) []HunkBound {
	bounds := make([]HunkBound, len(di.diff.Hunks))
	for i, h := range di.diff.Hunks {
		if style == diffiter.StyleUnified {
			bounds[i] = HunkBound{Start: h.UnifiedLineStart, Count: h.UnifiedLineCount}
		} else {
			bounds[i] = HunkBound{Start: h.SplitLineStart, Count: h.SplitLineCount}
		}
	}
	return bounds
}

func (di *DiffInstance) EmitTree(ctx context.Context, r *renderview.Renderer, opts renderview.RenderOptions) (renderview.Tree, bool) {
	opts.Style = di.style
	r.SetOptions(opts)
	return r.RenderDiff(ctx, di.diff)
}

// ExpandHunk reveals hunkIndex's collapsed lead-in region in full and forces
// the next Render to rebuild, the click-to-expand hunk separator behavior.
func (di *DiffInstance) ExpandHunk(hunkIndex int) {
	di.renderer.ExpandHunk(hunkIndex)
	di.forceRebuild()
}

// ActiveStyle reports the style this instance currently renders in.
func (di *DiffInstance) ActiveStyle() diffiter.DiffStyle { return di.style }
