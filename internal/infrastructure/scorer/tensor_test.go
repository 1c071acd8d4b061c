package scorer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"crack-inspector/internal/domain/entity"
)

func TestToCHW_NormalizesPerChannel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	data := toCHW(img, [3]float32{10, 10, 10}, [3]float32{1, 2, 4})
	require.Len(t, data, 6)
	require.Equal(t, []float32{-10, 0}, data[0:2])
	require.Equal(t, []float32{-5, 5}, data[2:4])
	require.Equal(t, []float32{-2.5, 5}, data[4:6])
}

func TestFromLogits_Softmax(t *testing.T) {
	// 1×2×1×2: пиксель 0 фон, пиксель 1 трещина
	data := []float32{
		2, 0, // фон
		0, 2, // трещина
	}
	pred, err := fromLogits(data, []int64{1, 2, 1, 2}, 1, 2)
	require.NoError(t, err)
	require.Equal(t, []entity.Label{entity.LabelBackground, entity.LabelCrack}, pred.Labels)
	require.InDelta(t, 0.1192, pred.Scores[0], 1e-4)
	require.InDelta(t, 0.8808, pred.Scores[1], 1e-4)
}

func TestFromLogits_SingleChannelSigmoid(t *testing.T) {
	pred, err := fromLogits([]float32{-3, 0, 3}, []int64{1, 1, 1, 3}, 1, 3)
	require.NoError(t, err)
	require.Equal(t, []entity.Label{entity.LabelBackground, entity.LabelCrack, entity.LabelCrack}, pred.Labels)
	require.InDelta(t, 0.5, pred.Scores[1], 1e-6)
}

func TestFromLogits_BadShapes(t *testing.T) {
	_, err := fromLogits(make([]float32, 8), []int64{1, 2, 2, 2}, 2, 3)
	require.ErrorIs(t, err, entity.ErrShapeMismatch)

	_, err = fromLogits(make([]float32, 7), []int64{1, 2, 2, 2}, 2, 2)
	require.Error(t, err)

	_, err = fromLogits(make([]float32, 4), []int64{2, 2}, 2, 2)
	require.Error(t, err)
}
