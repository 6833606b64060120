// Package diffmodel holds the data model the rest of scrollcode iterates,
// renders, and windows: file contents, parsed diffs, and the hunk/line shape
// a diff is broken into.
package diffmodel

import "fmt"

// LineType identifies what a single diff line represents.
type LineType int

const (
	LineContext LineType = iota // unchanged line, present on both sides
	LineAddition
	LineDeletion
)

// String returns a human-readable name for the line type.
func (t LineType) String() string {
	switch t {
	case LineContext:
		return "context"
	case LineAddition:
		return "addition"
	case LineDeletion:
		return "deletion"
	default:
		return "unknown"
	}
}

// FileContents is a named, optionally language-tagged blob of source text.
// The package never mutates a FileContents handed to it; callers should treat
// values as immutable by identity (CacheKey, when set, stands in for identity
// comparisons that would otherwise require hashing Text on every call).
type FileContents struct {
	Name     string
	Language string
	Text     string
	CacheKey string
}

// Line is a single line on one side of a diff.
type Line struct {
	Type       LineType
	OldLineNum int // 1-based; 0 if this line has no old-side counterpart
	NewLineNum int // 1-based; 0 if this line has no new-side counterpart
	Content    string
}

// Run is one alternating element of a hunk's content: either a shared
// context run or a change run pairing deletions with additions.
type Run struct {
	IsChange  bool
	Context   []Line // valid when !IsChange
	Deletions []Line // valid when IsChange
	Additions []Line // valid when IsChange
}

// Hunk is one contiguous change region in a diff, bracketed by unchanged
// context lines on either side.
type Hunk struct {
	DeletionStart, DeletionCount int
	AdditionStart, AdditionCount int

	// DeletionLineIndex/AdditionLineIndex are 0-based offsets into the
	// owning FileDiff's DeletionLines/AdditionLines arrays where this hunk's
	// lines begin.
	DeletionLineIndex, AdditionLineIndex int

	// UnifiedLineStart/Count and SplitLineStart/Count are this hunk's
	// position and extent in view-space, populated once the owning FileDiff
	// is fully parsed (see FileDiff.ResolveViewSpace).
	UnifiedLineStart, UnifiedLineCount int
	SplitLineStart, SplitLineCount    int

	// CollapsedBefore is the number of unchanged lines elided between the
	// previous hunk (or file start) and this one.
	CollapsedBefore int

	Header  string
	Content []Run

	DeletionNoTrailingNewline bool
	AdditionNoTrailingNewline bool
}

// FileDiff is a parsed diff between two FileContents.
type FileDiff struct {
	Old, New FileContents

	Hunks []Hunk

	AdditionLines []Line
	DeletionLines []Line

	// IsPartial is true when trailing context beyond the last hunk is not
	// available (e.g. the patch was produced with limited context lines),
	// so no trailing collapsed region can be derived.
	IsPartial bool

	// TotalOldLines/TotalNewLines are the full side lengths, used to derive
	// the trailing collapsed region. Zero means "unknown" (only meaningful
	// together with IsPartial=false).
	TotalOldLines, TotalNewLines int
}

// ErrTrailingContextMismatch is returned when a diff's implied trailing
// collapsed region is inconsistent between the two sides. It is a contract
// violation, not a data-absence condition: callers should treat it as a hard
// failure rather than retry.
type ErrTrailingContextMismatch struct {
	AdditionRemaining, DeletionRemaining int
}

func (e ErrTrailingContextMismatch) Error() string {
	return fmt.Sprintf("trailing context mismatch: %d addition lines remain but %d deletion lines remain", e.AdditionRemaining, e.DeletionRemaining)
}

// TrailingCollapsed reports the size of the implicit collapsed region after
// the last hunk, if any. ok is false when the diff reaches both sides' ends
// (no trailing region) or is IsPartial (unknowable). An error is returned
// when the two sides disagree about how much trails the last hunk — this is
// the "trailing context mismatch" failure spec.md requires the iterator and
// height computation to both refuse to silently truncate.
func (d *FileDiff) TrailingCollapsed() (count int, ok bool, err error) {
	if d.IsPartial {
		return 0, false, nil
	}
	if len(d.Hunks) == 0 {
		if d.TotalOldLines != d.TotalNewLines {
			return 0, false, ErrTrailingContextMismatch{
				AdditionRemaining: d.TotalNewLines,
				DeletionRemaining: d.TotalOldLines,
			}
		}
		if d.TotalOldLines == 0 {
			return 0, false, nil
		}
		return d.TotalOldLines, true, nil
	}

	last := d.Hunks[len(d.Hunks)-1]
	deletionRemaining := d.TotalOldLines - (last.DeletionStart + last.DeletionCount - 1)
	additionRemaining := d.TotalNewLines - (last.AdditionStart + last.AdditionCount - 1)

	if deletionRemaining <= 0 && additionRemaining <= 0 {
		return 0, false, nil
	}
	if deletionRemaining != additionRemaining {
		return 0, false, ErrTrailingContextMismatch{
			AdditionRemaining: additionRemaining,
			DeletionRemaining: deletionRemaining,
		}
	}
	return deletionRemaining, true, nil
}

// ResolveViewSpace computes UnifiedLineStart/Count and SplitLineStart/Count
// for every hunk, and returns the diff's total unified/split line counts
// (excluding any collapsed regions — those are never materialized as lines).
// Must be called once after a FileDiff's Hunks/Content are fully populated;
// diffiter.Walk and instance height estimation both depend on these fields.
func (d *FileDiff) ResolveViewSpace() (unifiedTotal, splitTotal int) {
	unifiedPos, splitPos := 0, 0
	for i := range d.Hunks {
		h := &d.Hunks[i]
		h.UnifiedLineStart = unifiedPos
		h.SplitLineStart = splitPos

		uCount, sCount := 0, 0
		for _, run := range h.Content {
			if !run.IsChange {
				uCount += len(run.Context)
				sCount += len(run.Context)
				continue
			}
			uCount += len(run.Deletions) + len(run.Additions)
			sCount += max(len(run.Deletions), len(run.Additions))
		}
		h.UnifiedLineCount = uCount
		h.SplitLineCount = sCount
		unifiedPos += uCount
		splitPos += sCount
	}
	return unifiedPos, splitPos
}
