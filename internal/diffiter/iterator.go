// Package diffiter provides a single windowable traversal over a parsed
// diff's hunks, context runs, and collapsed regions. Every other package
// that needs to walk a diff's lines (height estimation, rendering,
// reconciliation) goes through Walk instead of looping over
// diffmodel.FileDiff.Hunks directly.
package diffiter

import (
	"strings"

	"github.com/zjrosen/scrollcode/internal/diffmodel"
)

// DiffStyle selects how a hunk's change lines are grouped into rows.
type DiffStyle int

const (
	StyleUnified DiffStyle = iota // one row per deletion/addition line
	StyleSplit                    // paired rows, deletion and addition side by side
	StyleBoth                     // paired rows like Split, usable for either layout
)

// Unbounded is the sentinel for WalkOptions.Total meaning "render to the end."
const Unbounded = -1

// LineRecordType identifies what kind of row a Record describes.
type LineRecordType int

const (
	RecordContext LineRecordType = iota
	RecordChange
	RecordCollapsed
)

// LineRef locates one side of a row within the diff's permanent line space.
type LineRef struct {
	UnifiedIndex      int
	SplitIndex        int
	SideIndex         int // index into diff.DeletionLines or diff.AdditionLines
	SideNumber        int // 1-based old/new line number
	NoTrailingNewline bool
}

// Record is one row Walk yields: a context line, a change line (or aligned
// pair), or a collapsed-region marker.
type Record struct {
	HunkIndex       int
	Type            LineRecordType
	CollapsedBefore int // valid when Type == RecordCollapsed: lines this marker stands in for
	Deletion        *LineRef
	Addition        *LineRef
}

// ExpandRange describes how much of a collapsed region has been revealed.
// FromStart/FromEnd of -1 mean "all the way from that edge."
type ExpandRange struct {
	FromStart int
	FromEnd   int
}

// ExpandedRegions records which collapsed regions a caller has expanded, key
// by hunk index (the gap immediately before that hunk). TrailingRegionKey
// addresses the region after the last hunk. The zero value expands nothing.
type ExpandedRegions struct {
	ranges map[int]ExpandRange
	all    bool
}

// ExpandAll returns an ExpandedRegions that reveals every collapsed region in
// full, regardless of hunk index.
func ExpandAll() ExpandedRegions {
	return ExpandedRegions{all: true}
}

// TrailingRegionKey returns the hunk-index key used to address the collapsed
// region that follows a diff's last hunk.
func TrailingRegionKey(diff *diffmodel.FileDiff) int {
	return len(diff.Hunks)
}

// Expand returns a copy of e with region key set to r.
func (e ExpandedRegions) Expand(key int, r ExpandRange) ExpandedRegions {
	out := ExpandedRegions{all: e.all, ranges: make(map[int]ExpandRange, len(e.ranges)+1)}
	for k, v := range e.ranges {
		out.ranges[k] = v
	}
	out.ranges[key] = r
	return out
}

func (e ExpandedRegions) rangeFor(key int) (ExpandRange, bool) {
	if e.all {
		return ExpandRange{FromStart: -1, FromEnd: -1}, true
	}
	r, ok := e.ranges[key]
	return r, ok
}

// WalkOptions parameterizes a single Walk call.
type WalkOptions struct {
	Style    DiffStyle
	Start    int // first visual row to yield (0-based, in Style's row space)
	Total    int // number of rows to yield; Unbounded means "to the end"
	Expanded ExpandedRegions

	// CollapsedThreshold is the largest gap, in lines, that is always shown
	// as real context rather than collapsed into a marker. A gap must be
	// larger than this to ever become a RecordCollapsed row.
	CollapsedThreshold int
}

// CountLines returns the total number of rows Walk would yield for diff in
// the given style and expansion state, with no window applied.
func CountLines(diff *diffmodel.FileDiff, opts WalkOptions) (int, error) {
	opts.Start = 0
	opts.Total = Unbounded
	n := 0
	err := Walk(diff, opts, func(Record) bool {
		n++
		return true
	})
	return n, err
}

// EstimateTotal is CountLines without expansion state and with a zero
// CollapsedThreshold, so every gap counts as a single collapsed row. The
// result is a lower bound on rendered height: expanding a region or raising
// the threshold can only add rows.
func EstimateTotal(diff *diffmodel.FileDiff, style DiffStyle) (int, error) {
	return CountLines(diff, WalkOptions{Style: style})
}

// Walk traverses diff, yielding one Record per visual row within
// [opts.Start, opts.Start+opts.Total). Rows before the window are still
// accounted for (so later LineRef indices stay correct) but never yielded.
// Walk stops as soon as the window is exhausted or yield returns false.
//
// ErrTrailingContextMismatch from diff.TrailingCollapsed is always surfaced,
// even if the trailing region itself falls outside the requested window —
// it is a contract violation on the diff, not a windowing concern.
func Walk(diff *diffmodel.FileDiff, opts WalkOptions, yield func(Record) bool) error {
	if opts.Total == 0 {
		opts.Total = Unbounded
	}

	w := &walker{diff: diff, opts: opts, yield: yield}

	prevOldEnd, prevNewEnd := 0, 0
	for hunkIdx := range diff.Hunks {
		h := &diff.Hunks[hunkIdx]
		if !w.emitGap(hunkIdx, prevOldEnd, h.DeletionStart-1, prevNewEnd, h.AdditionStart-1) {
			return w.err
		}

		delCursor, addCursor := h.DeletionLineIndex, h.AdditionLineIndex
		for _, run := range h.Content {
			if !run.IsChange {
				for _, l := range run.Context {
					dref := LineRef{UnifiedIndex: w.unified, SplitIndex: w.split, SideIndex: delCursor, SideNumber: l.OldLineNum}
					aref := LineRef{UnifiedIndex: w.unified, SplitIndex: w.split, SideIndex: addCursor, SideNumber: l.NewLineNum}
					delCursor++
					addCursor++
					if !w.emit(Record{HunkIndex: hunkIdx, Type: RecordContext, Deletion: &dref, Addition: &aref}, 1) {
						return w.err
					}
				}
				continue
			}
			if !w.emitChangeRun(hunkIdx, run, &delCursor, &addCursor) {
				return w.err
			}
		}

		prevOldEnd = h.DeletionStart + h.DeletionCount - 1
		prevNewEnd = h.AdditionStart + h.AdditionCount - 1
	}

	trailing, ok, err := diff.TrailingCollapsed()
	if err != nil {
		return err
	}
	if ok {
		key := TrailingRegionKey(diff)
		if !w.emitGap(key, prevOldEnd, prevOldEnd+trailing, prevNewEnd, prevNewEnd+trailing) {
			return w.err
		}
	}

	return w.err
}

type walker struct {
	diff  *diffmodel.FileDiff
	opts  WalkOptions
	yield func(Record) bool

	row     int // visual row counter, gated against Start/Total
	unified int
	split   int
	stopped bool
	err     error
}

// emit advances the row/position counters for one row of the given kind and
// yields it if it falls within the configured window. It returns false once
// the walk should stop (window exhausted or the caller's yield declined).
func (w *walker) emit(rec Record, rows int) bool {
	if w.stopped {
		return false
	}
	if w.opts.Total != Unbounded && w.row >= w.opts.Start+w.opts.Total {
		w.stopped = true
		return false
	}
	if w.row >= w.opts.Start {
		if !w.yield(rec) {
			w.stopped = true
			return false
		}
	}
	w.row += rows
	switch rec.Type {
	case RecordContext, RecordChange:
		w.unified++
		w.split++
	}
	return true
}

// emitChangeRun emits one hunk change run's rows, pairing deletions with
// additions for split/both styles and emitting them separately for unified.
func (w *walker) emitChangeRun(hunkIdx int, run diffmodel.Run, delCursor, addCursor *int) bool {
	if w.opts.Style == StyleUnified {
		for _, l := range run.Deletions {
			ref := LineRef{UnifiedIndex: w.unified, SplitIndex: w.split, SideIndex: *delCursor, SideNumber: l.OldLineNum}
			*delCursor++
			if !w.emit(Record{HunkIndex: hunkIdx, Type: RecordChange, Deletion: &ref}, 1) {
				return false
			}
		}
		for _, l := range run.Additions {
			ref := LineRef{UnifiedIndex: w.unified, SplitIndex: w.split, SideIndex: *addCursor, SideNumber: l.NewLineNum}
			*addCursor++
			if !w.emit(Record{HunkIndex: hunkIdx, Type: RecordChange, Addition: &ref}, 1) {
				return false
			}
		}
		return true
	}

	minLen := min(len(run.Deletions), len(run.Additions))
	for i := 0; i < minLen; i++ {
		dref := LineRef{UnifiedIndex: w.unified, SplitIndex: w.split, SideIndex: *delCursor, SideNumber: run.Deletions[i].OldLineNum}
		aref := LineRef{UnifiedIndex: w.unified, SplitIndex: w.split, SideIndex: *addCursor, SideNumber: run.Additions[i].NewLineNum}
		*delCursor++
		*addCursor++
		if !w.emit(Record{HunkIndex: hunkIdx, Type: RecordChange, Deletion: &dref, Addition: &aref}, 1) {
			return false
		}
	}
	for i := minLen; i < len(run.Deletions); i++ {
		ref := LineRef{UnifiedIndex: w.unified, SplitIndex: w.split, SideIndex: *delCursor, SideNumber: run.Deletions[i].OldLineNum}
		*delCursor++
		if !w.emit(Record{HunkIndex: hunkIdx, Type: RecordChange, Deletion: &ref}, 1) {
			return false
		}
	}
	for i := minLen; i < len(run.Additions); i++ {
		ref := LineRef{UnifiedIndex: w.unified, SplitIndex: w.split, SideIndex: *addCursor, SideNumber: run.Additions[i].NewLineNum}
		*addCursor++
		if !w.emit(Record{HunkIndex: hunkIdx, Type: RecordChange, Addition: &ref}, 1) {
			return false
		}
	}
	return true
}

// emitGap handles the unchanged region between oldStart..oldEnd /
// newStart..newEnd that precedes hunkIdx (or follows the last hunk, when
// hunkIdx == TrailingRegionKey). It either reveals real context rows (when
// expanded, or the gap is at or below CollapsedThreshold) or a single
// RecordCollapsed marker.
func (w *walker) emitGap(hunkIdx, oldStart, oldEnd, newStart, newEnd int) bool {
	gap := oldEnd - oldStart
	if gap <= 0 {
		return true
	}

	expand, expanded := w.opts.Expanded.rangeFor(hunkIdx)
	if !expanded && gap <= w.opts.CollapsedThreshold {
		expanded = true
		expand = ExpandRange{FromStart: -1, FromEnd: -1}
	}

	oldLines := sliceLines(w.diff.Old.Text, oldStart+1, oldEnd)
	newLines := sliceLines(w.diff.New.Text, newStart+1, newEnd)
	if !expanded || oldLines == nil || len(oldLines) != gap || len(newLines) != gap {
		return w.emit(Record{HunkIndex: hunkIdx, Type: RecordCollapsed, CollapsedBefore: gap}, 1)
	}

	from, to := 0, gap
	if expand.FromStart >= 0 {
		to = min(to, expand.FromStart)
	}
	if expand.FromEnd >= 0 {
		from = max(from, gap-expand.FromEnd)
	}
	if from > 0 {
		if !w.emit(Record{HunkIndex: hunkIdx, Type: RecordCollapsed, CollapsedBefore: from}, 1) {
			return false
		}
	}
	for i := from; i < to; i++ {
		dref := LineRef{UnifiedIndex: w.unified, SplitIndex: w.split, SideNumber: oldStart + 1 + i}
		aref := LineRef{UnifiedIndex: w.unified, SplitIndex: w.split, SideNumber: newStart + 1 + i}
		if !w.emit(Record{HunkIndex: hunkIdx, Type: RecordContext, Deletion: &dref, Addition: &aref}, 1) {
			return false
		}
	}
	if to < gap {
		if !w.emit(Record{HunkIndex: hunkIdx, Type: RecordCollapsed, CollapsedBefore: gap - to}, 1) {
			return false
		}
	}
	return true
}

func sliceLines(text string, from, to int) []string {
	if text == "" || to < from {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if from < 1 || to > len(lines) {
		return nil
	}
	return lines[from-1 : to]
}
