package diffiter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/scrollcode/internal/diffmodel"
)

// genFileDiff draws a random pair of old/new file texts — a shared pool of
// numbered lines with a random subset mutated, inserted, or deleted — and
// parses them into a diffmodel.FileDiff the same way a caller diffing two
// real file revisions would, rather than hand-building Hunk structs.
func genFileDiff(t *rapid.T) *diffmodel.FileDiff {
	n := rapid.IntRange(1, 60).Draw(t, "lineCount")
	oldLines := make([]string, n)
	for i := range oldLines {
		oldLines[i] = fmt.Sprintf("line-%d", i)
	}

	var newLines []string
	for i, l := range oldLines {
		switch rapid.IntRange(0, 9).Draw(t, fmt.Sprintf("op-%d", i)) {
		case 0: // delete
			continue
		case 1: // change
			newLines = append(newLines, l+"-CHANGED")
		case 2: // insert extra line after
			newLines = append(newLines, l, "inserted-"+l)
		default: // unchanged
			newLines = append(newLines, l)
		}
	}

	old := diffmodel.FileContents{Name: "f", Text: strings.Join(oldLines, "\n") + "\n"}
	newC := diffmodel.FileContents{Name: "f", Text: strings.Join(newLines, "\n") + "\n"}

	diff, err := diffmodel.ParseDiffFromFiles(old, newC)
	require.NoError(t, err)
	return diff
}

// TestProperty_LineIndexMonotonicity verifies spec.md §8's line-index
// monotonicity invariant: across a full unstyled Walk, UnifiedIndex (and
// SplitIndex, when present) never decreases between successive Records.
func TestProperty_LineIndexMonotonicity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		diff := genFileDiff(rt)
		style := []DiffStyle{StyleUnified, StyleSplit}[rapid.IntRange(0, 1).Draw(rt, "style")]

		lastUnified, lastSplit := -1, -1
		err := Walk(diff, WalkOptions{Style: style}, func(r Record) bool {
			for _, ref := range []*LineRef{r.Deletion, r.Addition} {
				if ref == nil {
					continue
				}
				require.GreaterOrEqual(rt, ref.UnifiedIndex, lastUnified)
				require.GreaterOrEqual(rt, ref.SplitIndex, lastSplit)
				lastUnified, lastSplit = ref.UnifiedIndex, ref.SplitIndex
			}
			return true
		})
		require.NoError(rt, err)
	})
}

// TestProperty_WindowingCorrectness verifies spec.md §8's windowing
// invariant: for any finite {Start, Total}, the number of rows Walk yields
// equals min(Total, rows available from Start).
func TestProperty_WindowingCorrectness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		diff := genFileDiff(rt)
		style := []DiffStyle{StyleUnified, StyleSplit}[rapid.IntRange(0, 1).Draw(rt, "style")]

		total, err := CountLines(diff, WalkOptions{Style: style})
		require.NoError(rt, err)
		if total == 0 {
			return
		}

		start := rapid.IntRange(0, total-1).Draw(rt, "start")
		window := rapid.IntRange(1, total+5).Draw(rt, "window")

		n := 0
		err = Walk(diff, WalkOptions{Style: style, Start: start, Total: window}, func(Record) bool {
			n++
			return true
		})
		require.NoError(rt, err)
		require.Equal(rt, min(window, total-start), n)
	})
}

// TestProperty_FullEqualsAssembled verifies spec.md §8's full-equals-
// assembled invariant: concatenating Walk over consecutive, non-overlapping
// windows that partition the diff's view-space yields the same Record
// sequence as one unwindowed Walk.
func TestProperty_FullEqualsAssembled(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		diff := genFileDiff(rt)
		style := []DiffStyle{StyleUnified, StyleSplit}[rapid.IntRange(0, 1).Draw(rt, "style")]

		var full []Record
		require.NoError(rt, Walk(diff, WalkOptions{Style: style}, func(r Record) bool {
			full = append(full, r)
			return true
		}))
		if len(full) == 0 {
			return
		}

		chunk := rapid.IntRange(1, len(full)).Draw(rt, "chunk")

		var assembled []Record
		for start := 0; start < len(full); start += chunk {
			require.NoError(rt, Walk(diff, WalkOptions{Style: style, Start: start, Total: chunk}, func(r Record) bool {
				assembled = append(assembled, r)
				return true
			}))
		}

		require.Equal(rt, full, assembled)
	})
}
