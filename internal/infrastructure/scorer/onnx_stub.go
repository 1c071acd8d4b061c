//go:build !onnx
// +build !onnx

package scorer

import (
	"context"
	"errors"
	"image"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

// ONNXConfig настройки локальной модели
type ONNXConfig struct {
	ModelPath   string
	LibraryPath string
	Threads     int
	Mean        [3]float32
	Std         [3]float32
}

type ONNXScorer struct{}

// NewONNXScorer возвращает ошибку, если сборка без тега onnx.
func NewONNXScorer(cfg ONNXConfig) (*ONNXScorer, error) {
	_ = cfg
	return nil, errors.New("onnx build tag is not enabled")
}

// Score возвращает ошибку, если сборка без тега onnx.
func (s *ONNXScorer) Score(ctx context.Context, tile image.Image) (*entity.TilePrediction, error) {
	_ = ctx
	_ = tile
	return nil, errors.New("onnx build tag is not enabled")
}

func (s *ONNXScorer) Close() error {
	return nil
}

var _ port.TileScorer = (*ONNXScorer)(nil)
