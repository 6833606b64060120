// Package reconcile stitches a freshly rendered row range together with the
// overlapping slice of a previous render, so a scroll of a few rows re-runs
// the renderer only for the rows that newly entered view. There is no
// persistent DOM here to patch in place — Bubble Tea always redraws a full
// string — so "reconcile" means splicing []renderview.Row slices; the
// caller renders the merged slice to terminal cells afterward.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/zjrosen/scrollcode/internal/renderview"
)

// ErrTrimCrossedStart is returned when the computed overlap trim would start
// past its own end — a caller passed ranges that don't actually overlap in
// the direction claimed.
var ErrTrimCrossedStart = errors.New("reconcile: trim start crossed trim end")

// ErrSplitMismatch is returned when prevRows' trimmed slice and the new
// prefix/suffix don't agree on split-mode row cardinality — split style
// requires both sides to trim the same logical row count.
var ErrSplitMismatch = errors.New("reconcile: split-mode row count mismatch across trim boundary")

// ErrNegativeBufferSize is returned if a buffer-row merge would produce a
// negative BufferSize, which can only mean a caller's ranges are corrupt.
var ErrNegativeBufferSize = errors.New("reconcile: merged buffer row has negative size")

// ApplyPartial merges prevRows (covering prev) with nextPrefix/nextSuffix
// (newly rendered rows covering the parts of next not already covered by
// prev) into a single []Row spanning all of next. ok is false when prev and
// next don't overlap at all — the caller should fall back to a full
// re-render rather than call ApplyPartial.
func ApplyPartial(
	prev, next renderview.RenderRange,
	prevRows, nextPrefix, nextSuffix []renderview.Row,
) (merged []renderview.Row, ok bool, err error) {
	overlapStart := max(prev.Start, next.Start)
	overlapEnd := min(prev.Start+prev.Total, next.Start+next.Total)
	if overlapEnd <= overlapStart {
		return nil, false, nil
	}

	trimFrom := overlapStart - prev.Start
	trimTo := overlapEnd - prev.Start
	if trimFrom < 0 || trimTo < trimFrom {
		return nil, false, ErrTrimCrossedStart
	}
	if trimTo > len(prevRows) {
		return nil, false, fmt.Errorf("reconcile: trim end %d exceeds prevRows length %d", trimTo, len(prevRows))
	}
	trimmed := prevRows[trimFrom:trimTo]

	wantPrefix := overlapStart - next.Start
	wantSuffix := (next.Start + next.Total) - overlapEnd
	if len(nextPrefix) != wantPrefix || len(nextSuffix) != wantSuffix {
		return nil, false, ErrSplitMismatch
	}

	merged = make([]renderview.Row, 0, len(nextPrefix)+len(trimmed)+len(nextSuffix))
	merged = append(merged, nextPrefix...)
	merged, err = appendMergingBuffer(merged, trimmed)
	if err != nil {
		return nil, false, err
	}
	merged, err = appendMergingBuffer(merged, nextSuffix)
	if err != nil {
		return nil, false, err
	}

	// merged can be one row shorter than next.Total when a buffer row at the
	// trim seam merges with an adjacent buffer row from the other slice —
	// the two placeholders collapse into a single wider one, same as two
	// adjacent diffiter collapsed-region markers would.
	return merged, true, nil
}

// appendMergingBuffer appends rows to merged, collapsing a RowBuffer at the
// seam (the last row already in merged and the first row being appended)
// into one row with a summed BufferSize rather than leaving two adjacent
// buffer rows. renderview's split builder does not merge buffer rows (it
// emits one size-1 buffer row per unpaired line), so this seam merge is the
// only place two buffer rows are combined.
func appendMergingBuffer(merged, rows []renderview.Row) ([]renderview.Row, error) {
	if len(merged) == 0 || len(rows) == 0 {
		return append(merged, rows...), nil
	}
	last := &merged[len(merged)-1]
	first := rows[0]
	if last.Kind == renderview.RowBuffer && first.Kind == renderview.RowBuffer {
		size := last.BufferSize + first.BufferSize
		if size < 0 {
			return nil, ErrNegativeBufferSize
		}
		last.BufferSize = size
		return append(merged, rows[1:]...), nil
	}
	return append(merged, rows...), nil
}
