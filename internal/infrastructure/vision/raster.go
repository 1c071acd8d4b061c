package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

// Raster снимок, целиком декодированный в память
type Raster struct {
	img *image.NRGBA
}

// NewRaster оборачивает картинку; координаты приводятся к началу (0,0).
func NewRaster(img image.Image) *Raster {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return &Raster{img: nrgba}
	}
	return &Raster{img: imaging.Clone(img)}
}

func (r *Raster) Bounds() (int, int) {
	if r.img == nil {
		return 0, 0
	}
	b := r.img.Bounds()
	return b.Dy(), b.Dx()
}

// Tile вырезает окно. Окно должно целиком лежать внутри снимка.
func (r *Raster) Tile(t entity.Tile) (image.Image, error) {
	if r.img == nil {
		return nil, errors.New("image is closed")
	}
	rect := t.Rect()
	if !rect.In(r.img.Bounds()) || rect.Empty() {
		return nil, fmt.Errorf("%w: tile %d %v outside %v", entity.ErrTileOutOfBounds, t.Index, rect, r.img.Bounds())
	}
	return imaging.Crop(r.img, rect), nil
}

// Image возвращает снимок целиком
func (r *Raster) Image() image.Image {
	return r.img
}

func (r *Raster) Close() error {
	r.img = nil
	return nil
}

// Loader открывает JPEG, PNG, GIF, TIFF, BMP и WebP без OpenCV
type Loader struct {
	autoOrient bool
}

// NewLoader создаёт загрузчик. autoOrient поворачивает JPEG по тегу EXIF.
func NewLoader(autoOrient bool) *Loader {
	return &Loader{autoOrient: autoOrient}
}

func (l *Loader) Open(ctx context.Context, path string) (port.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(l.autoOrient))
	if err != nil {
		return nil, err
	}
	return checkRaster(NewRaster(img))
}

func (l *Loader) Decode(ctx context.Context, data []byte) (port.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(l.autoOrient))
	if err != nil {
		return nil, err
	}
	return checkRaster(NewRaster(img))
}

func checkRaster(r *Raster) (port.Image, error) {
	if h, w := r.Bounds(); h == 0 || w == 0 {
		return nil, entity.ErrEmptyImage
	}
	return r, nil
}

// Проверка реализации интерфейсов
var (
	_ port.Image       = (*Raster)(nil)
	_ port.ImageLoader = (*Loader)(nil)
)
