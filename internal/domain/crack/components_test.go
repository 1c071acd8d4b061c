package crack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"crack-inspector/internal/domain/entity"
)

func TestExtractRegions_TwoDisjointBlobs(t *testing.T) {
	mask := entity.NewMask(40, 80)
	fillRect(mask, 20, 5, 6, 10) // ниже, но левее
	fillRect(mask, 2, 50, 4, 20) // выше, найдётся первым

	regions, err := ExtractRegions(mask, 0, 8)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	require.Equal(t, 1, regions[0].ID)
	require.Equal(t, 80, regions[0].Area)
	require.Equal(t, entity.BoundingBox{MinRow: 2, MinCol: 50, MaxRow: 5, MaxCol: 69}, regions[0].Box)

	require.Equal(t, 2, regions[1].ID)
	require.Equal(t, 60, regions[1].Area)
	require.Equal(t, entity.BoundingBox{MinRow: 20, MinCol: 5, MaxRow: 25, MaxCol: 14}, regions[1].Box)

	require.False(t, regions[0].Box.Overlaps(regions[1].Box))
}

func TestExtractRegions_Connectivity(t *testing.T) {
	mask := maskFromRows(
		"#...",
		".#..",
		"..#.",
		"....",
	)

	regions, err := ExtractRegions(mask, 0, 8)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	require.Equal(t, 3, regions[0].Area)

	regions, err = ExtractRegions(mask, 0, 4)
	require.NoError(t, err)
	require.Len(t, regions, 3)
}

func TestExtractRegions_MinimumArea(t *testing.T) {
	mask := entity.NewMask(50, 50)
	fillRect(mask, 0, 0, 1, 1)    // 1
	fillRect(mask, 5, 5, 1, 5)    // 5
	fillRect(mask, 10, 10, 4, 5)  // 20
	fillRect(mask, 30, 30, 5, 10) // 50

	regions, err := ExtractRegions(mask, 20, 8)
	require.NoError(t, err)
	require.Len(t, regions, 2)
	require.Equal(t, 20, regions[0].Area)
	require.Equal(t, 1, regions[0].ID)
	require.Equal(t, 2, regions[1].ID)

	prev := len(mask.Pix)
	for minArea := 0; minArea <= 60; minArea++ {
		regions, err := ExtractRegions(mask, minArea, 8)
		require.NoError(t, err)
		require.LessOrEqual(t, len(regions), prev)
		prev = len(regions)
	}
	require.Zero(t, prev)
}

func TestExtractRegions_LocalMaskHoldsOnlyOwnPixels(t *testing.T) {
	mask := maskFromRows(
		"#####",
		"#....",
		"#.#..",
		"#....",
		"#####",
	)

	regions, err := ExtractRegions(mask, 0, 4)
	require.NoError(t, err)
	require.Len(t, regions, 2)

	outer := regions[0]
	require.Equal(t, 13, outer.Area)
	require.Equal(t, 5, outer.Mask.Height)
	require.Equal(t, 5, outer.Mask.Width)
	require.Equal(t, outer.Area, outer.Mask.Count(entity.LabelCrack))
	require.Equal(t, entity.LabelBackground, outer.Mask.At(2, 2))

	inner := regions[1]
	require.Equal(t, 1, inner.Area)
	require.Equal(t, entity.BoundingBox{MinRow: 2, MinCol: 2, MaxRow: 2, MaxCol: 2}, inner.Box)
}

func TestExtractRegions_InvalidConnectivity(t *testing.T) {
	_, err := ExtractRegions(entity.NewMask(2, 2), 0, 6)
	require.True(t, errors.Is(err, entity.ErrInvalidConfig))
}
