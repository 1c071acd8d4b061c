// Package scorer содержит модели сегментации трещин: удалённый сервис по HTTP
// и локальную ONNX-модель.
package scorer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"crack-inspector/internal/domain/entity"
)

// Нормировка mmsegmentation по умолчанию (ImageNet, порядок RGB).
var (
	DefaultMean = [3]float32{123.675, 116.28, 103.53}
	DefaultStd  = [3]float32{58.395, 57.12, 57.375}
)

// crackClass индекс канала "трещина" в выходе модели с двумя и более классами.
const crackClass = 1

// toCHW раскладывает картинку в плоский тензор 3×H×W с нормировкой по каналам.
func toCHW(img image.Image, mean, std [3]float32) []float32 {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	plane := h * w
	data := make([]float32, 3*plane)

	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := y*w + x
			data[i] = (float32(c.R) - mean[0]) / std[0]
			data[plane+i] = (float32(c.G) - mean[1]) / std[1]
			data[2*plane+i] = (float32(c.B) - mean[2]) / std[2]
		}
	}
	return data
}

// fromLogits переводит выход модели формы 1×C×H×W в метки и уверенность класса "трещина".
// При C==1 выход считается логитом трещины (сигмоида), иначе берётся softmax и argmax.
func fromLogits(data []float32, shape []int64, height, width int) (*entity.TilePrediction, error) {
	if len(shape) != 4 || shape[0] != 1 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
	classes, h, w := int(shape[1]), int(shape[2]), int(shape[3])
	if h != height || w != width {
		return nil, &entity.ShapeMismatchError{WantHeight: height, WantWidth: width, GotHeight: h, GotWidth: w}
	}
	plane := h * w
	if classes < 1 || len(data) != classes*plane {
		return nil, fmt.Errorf("output has %d values, shape %v", len(data), shape)
	}

	pred := entity.NewTilePrediction(h, w, true)
	for i := range plane {
		var score float32
		label := entity.LabelBackground

		if classes == 1 {
			score = sigmoid(data[i])
			if score >= 0.5 {
				label = entity.LabelCrack
			}
		} else {
			best, maxLogit := 0, data[i]
			for c := 1; c < classes; c++ {
				if v := data[c*plane+i]; v > maxLogit {
					best, maxLogit = c, v
				}
			}
			var sum float64
			for c := range classes {
				sum += math.Exp(float64(data[c*plane+i] - maxLogit))
			}
			score = float32(math.Exp(float64(data[crackClass*plane+i]-maxLogit)) / sum)
			if best == crackClass {
				label = entity.LabelCrack
			}
		}

		pred.Labels[i] = label
		pred.Scores[i] = score
	}
	return pred, nil
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}
