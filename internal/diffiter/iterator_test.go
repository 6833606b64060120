package diffiter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/scrollcode/internal/diffmodel"
)

func parseForTest(t *testing.T, patch string) *diffmodel.FileDiff {
	t.Helper()
	diff, err := diffmodel.ParseUnified(diffmodel.FileContents{}, diffmodel.FileContents{}, patch)
	require.NoError(t, err)
	return diff
}

func TestWalk_UnifiedCountsEachLineSeparately(t *testing.T) {
	diff := parseForTest(t, `--- a/f
+++ b/f
@@ -1,3 +1,4 @@
 one
-two
-three
+TWO
+THREE
+FOUR
 four
`)

	var records []Record
	err := Walk(diff, WalkOptions{Style: StyleUnified}, func(r Record) bool {
		records = append(records, r)
		return true
	})
	require.NoError(t, err)
	// one(context) + two,three(del) + TWO,THREE,FOUR(add) + four(context) = 7
	require.Len(t, records, 7)
}

func TestWalk_SplitPairsChangeRows(t *testing.T) {
	diff := parseForTest(t, `--- a/f
+++ b/f
@@ -1,3 +1,4 @@
 one
-two
-three
+TWO
+THREE
+FOUR
 four
`)

	var records []Record
	err := Walk(diff, WalkOptions{Style: StyleSplit}, func(r Record) bool {
		records = append(records, r)
		return true
	})
	require.NoError(t, err)
	// one(context) + 3 paired/extra rows (two of them paired, FOUR unpaired) + four(context) = 5
	require.Len(t, records, 5)

	var sawUnpairedAddition bool
	for _, r := range records {
		if r.Type == RecordChange && r.Deletion == nil && r.Addition != nil {
			sawUnpairedAddition = true
		}
	}
	require.True(t, sawUnpairedAddition)
}

func TestWalk_WindowSkipsRowsButKeepsIndicesCorrect(t *testing.T) {
	diff := parseForTest(t, `--- a/f
+++ b/f
@@ -1,3 +1,3 @@
 one
-two
+TWO
 three
`)

	var all []Record
	require.NoError(t, Walk(diff, WalkOptions{Style: StyleUnified}, func(r Record) bool {
		all = append(all, r)
		return true
	}))

	var windowed []Record
	require.NoError(t, Walk(diff, WalkOptions{Style: StyleUnified, Start: 1, Total: 2}, func(r Record) bool {
		windowed = append(windowed, r)
		return true
	}))

	require.Len(t, windowed, 2)
	require.Equal(t, all[1], windowed[0])
	require.Equal(t, all[2], windowed[1])
}

func TestWalk_CollapsedRegionBetweenHunks(t *testing.T) {
	diff := parseForTest(t, `--- a/f
+++ b/f
@@ -1,2 +1,2 @@
 one
-two
+TWO
@@ -20,2 +20,2 @@
 twenty
-twentyone
+TWENTYONE
`)

	var records []Record
	require.NoError(t, Walk(diff, WalkOptions{Style: StyleUnified}, func(r Record) bool {
		records = append(records, r)
		return true
	}))

	var collapsed []Record
	for _, r := range records {
		if r.Type == RecordCollapsed {
			collapsed = append(collapsed, r)
		}
	}
	require.Len(t, collapsed, 1)
	require.Equal(t, 17, collapsed[0].CollapsedBefore)
}

func TestWalk_CollapsedThresholdRevealsSmallGaps(t *testing.T) {
	old := diffmodel.FileContents{Text: "one\ntwo\nc1\nc2\ntwentyone\ntwentytwo\n"}
	new := diffmodel.FileContents{Text: "one\nTWO\nc1\nc2\ntwentyone\nTWENTYTWO\n"}
	diff, err := diffmodel.ParseDiffFromFiles(old, new)
	require.NoError(t, err)

	var withoutThreshold, withThreshold int
	require.NoError(t, Walk(diff, WalkOptions{Style: StyleUnified}, func(r Record) bool {
		withoutThreshold++
		return true
	}))
	require.NoError(t, Walk(diff, WalkOptions{Style: StyleUnified, CollapsedThreshold: 100}, func(r Record) bool {
		withThreshold++
		return true
	}))
	require.GreaterOrEqual(t, withThreshold, withoutThreshold)
}

func TestWalk_EarlyStopViaYieldFalse(t *testing.T) {
	diff := parseForTest(t, `--- a/f
+++ b/f
@@ -1,3 +1,3 @@
 one
-two
+TWO
 three
`)

	n := 0
	require.NoError(t, Walk(diff, WalkOptions{Style: StyleUnified}, func(r Record) bool {
		n++
		return n < 2
	}))
	require.Equal(t, 2, n)
}

func TestWalk_TrailingContextMismatchSurfaced(t *testing.T) {
	diff := parseForTest(t, `--- a/f
+++ b/f
@@ -1,2 +1,2 @@
 one
-two
+TWO
`)
	diff.TotalOldLines = 10
	diff.TotalNewLines = 9

	err := Walk(diff, WalkOptions{Style: StyleUnified}, func(Record) bool { return true })
	require.Error(t, err)
	var mismatch diffmodel.ErrTrailingContextMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestCountLines(t *testing.T) {
	diff := parseForTest(t, `--- a/f
+++ b/f
@@ -1,3 +1,3 @@
 one
-two
+TWO
 three
`)
	n, err := CountLines(diff, WalkOptions{Style: StyleUnified})
	require.NoError(t, err)
	require.Equal(t, 4, n)
}
