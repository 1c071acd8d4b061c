package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBoxCenter(t *testing.T) {
	b := BoundingBox{MinRow: 20, MinCol: 10, MaxRow: 25, MaxCol: 17}
	row, col := b.Center()
	require.Equal(t, 22, row)
	require.Equal(t, 13, col)
	require.Equal(t, 6, b.Height())
	require.Equal(t, 8, b.Width())
}

func TestBoundingBoxString(t *testing.T) {
	b := BoundingBox{MinRow: 1, MinCol: 2, MaxRow: 30, MaxCol: 40}
	require.Equal(t, "(1,2)-(30,40)", b.String())
}

func TestBoundingBoxOverlaps(t *testing.T) {
	a := BoundingBox{MinRow: 0, MinCol: 0, MaxRow: 9, MaxCol: 9}
	require.True(t, a.Overlaps(BoundingBox{MinRow: 9, MinCol: 9, MaxRow: 12, MaxCol: 12}))
	require.False(t, a.Overlaps(BoundingBox{MinRow: 10, MinCol: 0, MaxRow: 12, MaxCol: 9}))
}

func TestBoundingBoxNormalized(t *testing.T) {
	b := BoundingBox{MinRow: 10, MinCol: 50, MaxRow: 20, MaxCol: 100}
	minR, minC, maxR, maxC := b.Normalized(100, 200)
	require.InDelta(t, 0.1, minR, 1e-9)
	require.InDelta(t, 0.25, minC, 1e-9)
	require.InDelta(t, 0.2, maxR, 1e-9)
	require.InDelta(t, 0.5, maxC, 1e-9)
}

func TestCrackMeasurementDimensions(t *testing.T) {
	m := CrackMeasurement{Width: 10.091, Length: 99.0917}
	require.Equal(t, "10.09x99.09", m.Dimensions())
	require.InDelta(t, 999.93, m.Size(), 0.01)
}
