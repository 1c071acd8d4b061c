package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

// Overlay закрашивает пиксели трещин полупрозрачным цветом поверх снимка.
type Overlay struct {
	color   colorful.Color
	alpha   float64
	maxSide int // предел стороны картинки для чата, 0 без уменьшения
}

// NewOverlay разбирает цвет вида "#FF0000". alpha в [0,1]: доля цвета трещины в пикселе.
func NewOverlay(hex string, alpha float64, maxSide int) (*Overlay, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("overlay color %q: %w", hex, err)
	}
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("overlay alpha must be in [0,1], got %g", alpha)
	}
	return &Overlay{color: c, alpha: alpha, maxSide: maxSide}, nil
}

// Render возвращает копию снимка с подсвеченной маской.
func (o *Overlay) Render(src port.Image, mask *entity.Mask) (*image.NRGBA, error) {
	height, width := src.Bounds()
	if mask.Height != height || mask.Width != width {
		return nil, fmt.Errorf("%w: mask %dx%d, image %dx%d", entity.ErrShapeMismatch, mask.Height, mask.Width, height, width)
	}

	whole, err := src.Tile(entity.Tile{Height: height, Width: width})
	if err != nil {
		return nil, err
	}
	out := imaging.Clone(whole)

	for row := range height {
		for col := range width {
			if mask.At(row, col) != entity.LabelCrack {
				continue
			}
			px := out.NRGBAAt(col, row)
			base, ok := colorful.MakeColor(px)
			if !ok {
				// Прозрачный пиксель: берём его цвет без альфы.
				base = colorful.Color{R: float64(px.R) / 255, G: float64(px.G) / 255, B: float64(px.B) / 255}
			}
			r, g, b := base.BlendRgb(o.color, o.alpha).Clamped().RGB255()
			out.SetNRGBA(col, row, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out, nil
}

// Highlight рисует подсветку и кодирует её в JPEG, уменьшая до maxSide.
func (o *Overlay) Highlight(src port.Image, mask *entity.Mask) ([]byte, error) {
	out, err := o.Render(src, mask)
	if err != nil {
		return nil, err
	}

	var img image.Image = out
	if o.maxSide > 0 {
		b := out.Bounds()
		if b.Dx() > o.maxSide || b.Dy() > o.maxSide {
			img = imaging.Fit(out, o.maxSide, o.maxSide, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MaskImage переводит маску в 8-битную картинку: 255 для трещины, 0 для фона.
func MaskImage(mask *entity.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, mask.Width, mask.Height))
	for i, label := range mask.Pix {
		if label == entity.LabelCrack {
			img.Pix[i] = 255
		}
	}
	return img
}

var _ port.Highlighter = (*Overlay)(nil)
