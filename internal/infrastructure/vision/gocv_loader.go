//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

// GoCVLoader открывает снимки через OpenCV; подходит для очень больших ортофото.
type GoCVLoader struct{}

// NewGoCVLoader создаёт загрузчик на OpenCV. maxPixels нужный предел размера снимка:
// OpenCV берёт его из OPENCV_IO_MAX_IMAGE_PIXELS при загрузке библиотеки, и поменять его
// из процесса уже нельзя, поэтому здесь он только проверяется.
func NewGoCVLoader(maxPixels int64) (*GoCVLoader, error) {
	if err := CheckPixelLimit(os.LookupEnv, maxPixels); err != nil {
		return nil, err
	}
	return &GoCVLoader{}, nil
}

// Open читает файл в цвете.
func (l *GoCVLoader) Open(ctx context.Context, path string) (port.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to read image %s (images over the %s limit are rejected by OpenCV)", path, PixelLimitEnv)
	}
	return &matImage{mat: mat}, nil
}

// Decode превращает байты изображения в снимок.
func (l *GoCVLoader) Decode(ctx context.Context, data []byte) (port.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat, err := decodeToMat(data)
	if err != nil {
		return nil, err
	}
	return &matImage{mat: mat}, nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

type matImage struct {
	mu  sync.Mutex
	mat gocv.Mat
}

func (m *matImage) Bounds() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mat.Rows(), m.mat.Cols()
}

// Tile копирует окно из матрицы в image.Image.
func (m *matImage) Tile(t entity.Tile) (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mat.Empty() {
		return nil, errors.New("image is closed")
	}
	rect := t.Rect()
	if !rect.In(image.Rect(0, 0, m.mat.Cols(), m.mat.Rows())) || rect.Empty() {
		return nil, fmt.Errorf("%w: tile %d %v outside %dx%d", entity.ErrTileOutOfBounds, t.Index, rect, m.mat.Rows(), m.mat.Cols())
	}

	region := m.mat.Region(rect)
	defer region.Close()

	return region.ToImage()
}

func (m *matImage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mat.Close()
}

var (
	_ port.Image       = (*matImage)(nil)
	_ port.ImageLoader = (*GoCVLoader)(nil)
)
