package entity

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig   = errors.New("invalid config")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrTileScoreFailed = errors.New("tile score failed")
	ErrEmptyImage      = errors.New("empty image")
	ErrTileOutOfBounds = errors.New("tile out of bounds")
)

// ShapeMismatchError: размер ответа модели не совпал с размером окна.
type ShapeMismatchError struct {
	TileIndex  int
	WantHeight int
	WantWidth  int
	GotHeight  int
	GotWidth   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch on tile %d: want %dx%d, got %dx%d",
		e.TileIndex, e.WantHeight, e.WantWidth, e.GotHeight, e.GotWidth)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// TileScoreFailedError: модель не смогла обработать окно.
type TileScoreFailedError struct {
	Image     string
	TileIndex int
	Err       error
}

func (e *TileScoreFailedError) Error() string {
	return fmt.Sprintf("score tile %d of %s: %v", e.TileIndex, e.Image, e.Err)
}

func (e *TileScoreFailedError) Unwrap() error {
	return e.Err
}

func (e *TileScoreFailedError) Is(target error) bool {
	return target == ErrTileScoreFailed
}
