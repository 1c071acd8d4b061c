//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"crack-inspector/internal/domain/port"
)

type GoCVLoader struct{}

// ErrGoCVDisabled бинарник собран без тега gocv.
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// NewGoCVLoader без OpenCV всегда возвращает ErrGoCVDisabled.
func NewGoCVLoader(maxPixels int64) (*GoCVLoader, error) {
	_ = maxPixels
	return nil, ErrGoCVDisabled
}

// Open возвращает ошибку, если сборка без тега gocv.
func (l *GoCVLoader) Open(ctx context.Context, path string) (port.Image, error) {
	_ = ctx
	_ = path
	return nil, ErrGoCVDisabled
}

// Decode возвращает ошибку, если сборка без тега gocv.
func (l *GoCVLoader) Decode(ctx context.Context, data []byte) (port.Image, error) {
	_ = ctx
	_ = data
	return nil, ErrGoCVDisabled
}

var _ port.ImageLoader = (*GoCVLoader)(nil)
