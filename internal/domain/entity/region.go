package entity

import "fmt"

// BoundingBox описывающий прямоугольник в координатах (строка, столбец), границы включительно.
type BoundingBox struct {
	MinRow int
	MinCol int
	MaxRow int
	MaxCol int
}

// Height возвращает высоту прямоугольника в пикселях.
func (b BoundingBox) Height() int {
	return b.MaxRow - b.MinRow + 1
}

// Width возвращает ширину прямоугольника в пикселях.
func (b BoundingBox) Width() int {
	return b.MaxCol - b.MinCol + 1
}

// Center возвращает координаты центра прямоугольника.
func (b BoundingBox) Center() (row, col int) {
	return b.MinRow + (b.Height()-1)/2, b.MinCol + (b.Width()-1)/2
}

// Overlaps проверяет пересечение двух прямоугольников.
func (b BoundingBox) Overlaps(o BoundingBox) bool {
	return b.MinRow <= o.MaxRow && o.MinRow <= b.MaxRow &&
		b.MinCol <= o.MaxCol && o.MinCol <= b.MaxCol
}

// Normalized переводит углы в доли размера изображения.
func (b BoundingBox) Normalized(imageHeight, imageWidth int) (minRow, minCol, maxRow, maxCol float64) {
	h, w := float64(imageHeight), float64(imageWidth)
	return float64(b.MinRow) / h, float64(b.MinCol) / w, float64(b.MaxRow) / h, float64(b.MaxCol) / w
}

// String форматирует прямоугольник как "(minr,minc)-(maxr,maxc)".
func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.MinRow, b.MinCol, b.MaxRow, b.MaxCol)
}

// Region связная область пикселей трещины.
type Region struct {
	ID   int         // порядковый номер в построчном обходе, с 1
	Area int         // число пикселей
	Box  BoundingBox // описывающий прямоугольник
	Mask *Mask       // пиксели только этой области в пределах Box
}
