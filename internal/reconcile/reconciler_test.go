package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zjrosen/scrollcode/internal/renderview"
)

func lineRows(fromUnified, n int) []renderview.Row {
	rows := make([]renderview.Row, n)
	for i := range rows {
		rows[i] = renderview.Row{Kind: renderview.RowLine, LineUnified: fromUnified + i}
	}
	return rows
}

func TestApplyPartial_OverlapReusesMiddle(t *testing.T) {
	prev := renderview.RenderRange{Start: 0, Total: 10}
	next := renderview.RenderRange{Start: 2, Total: 10}

	prevRows := lineRows(0, 10)
	nextSuffix := lineRows(10, 2)

	merged, ok, err := ApplyPartial(prev, next, prevRows, nil, nextSuffix)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, merged, 10)
	require.Equal(t, 2, merged[0].LineUnified)
	require.Equal(t, 11, merged[9].LineUnified)
}

func TestApplyPartial_NoOverlapReturnsNotOK(t *testing.T) {
	prev := renderview.RenderRange{Start: 0, Total: 5}
	next := renderview.RenderRange{Start: 20, Total: 5}

	_, ok, err := ApplyPartial(prev, next, lineRows(0, 5), lineRows(20, 5), nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestApplyPartial_WrongPrefixLengthErrors(t *testing.T) {
	prev := renderview.RenderRange{Start: 5, Total: 10}
	next := renderview.RenderRange{Start: 0, Total: 10}

	_, ok, err := ApplyPartial(prev, next, lineRows(5, 10), lineRows(0, 3), nil)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrSplitMismatch)
}

func TestApplyPartial_BufferRowsMergeAcrossSeam(t *testing.T) {
	prev := renderview.RenderRange{Start: 1, Total: 3}
	next := renderview.RenderRange{Start: 0, Total: 4}

	prevRows := []renderview.Row{
		{Kind: renderview.RowBuffer, BufferSize: 2},
		{Kind: renderview.RowLine, LineUnified: 2},
		{Kind: renderview.RowLine, LineUnified: 3},
	}
	nextPrefix := []renderview.Row{
		{Kind: renderview.RowBuffer, BufferSize: 1},
	}

	merged, ok, err := ApplyPartial(prev, next, prevRows, nextPrefix, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, merged, 3)
	require.Equal(t, renderview.RowBuffer, merged[0].Kind)
	require.Equal(t, 3, merged[0].BufferSize)
}

func TestApplyPartial_TrimPastPrevRowsErrors(t *testing.T) {
	prev := renderview.RenderRange{Start: 0, Total: 3}
	next := renderview.RenderRange{Start: 0, Total: 10}

	_, ok, err := ApplyPartial(prev, next, lineRows(0, 2), nil, lineRows(3, 7))
	require.False(t, ok)
	require.Error(t, err)
}
