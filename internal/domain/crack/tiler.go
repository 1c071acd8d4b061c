// Package crack содержит алгоритмы конвейера: нарезку на окна, склейку масок,
// выделение связных областей и измерение трещин.
package crack

import (
	"fmt"
	"iter"

	"crack-inspector/internal/domain/entity"
)

// Tiler нарезает изображение на перекрывающиеся квадратные окна.
// Последнее окно в строке и столбце сдвигается назад, чтобы не выходить за границу.
type Tiler struct {
	height int
	width  int
	tileH  int
	tileW  int
	rows   []int
	cols   []int
}

// NewTiler строит сетку окон для изображения height×width.
func NewTiler(height, width int, params entity.Params) (*Tiler, error) {
	if params.WindowSize <= 0 {
		return nil, fmt.Errorf("%w: window_size must be positive, got %d", entity.ErrInvalidConfig, params.WindowSize)
	}
	if params.OverlapRatio < 0 || params.OverlapRatio >= 1 {
		return nil, fmt.Errorf("%w: overlap_ratio must be in [0,1), got %g", entity.ErrInvalidConfig, params.OverlapRatio)
	}
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", entity.ErrEmptyImage, height, width)
	}

	stride := params.Stride()
	tileH := min(params.WindowSize, height)
	tileW := min(params.WindowSize, width)

	return &Tiler{
		height: height,
		width:  width,
		tileH:  tileH,
		tileW:  tileW,
		rows:   axisOffsets(height, tileH, stride),
		cols:   axisOffsets(width, tileW, stride),
	}, nil
}

// Len возвращает число окон.
func (t *Tiler) Len() int {
	return len(t.rows) * len(t.cols)
}

// At возвращает окно с порядковым номером i (построчный обход).
func (t *Tiler) At(i int) entity.Tile {
	return entity.Tile{
		Index:  i,
		Row:    t.rows[i/len(t.cols)],
		Col:    t.cols[i%len(t.cols)],
		Height: t.tileH,
		Width:  t.tileW,
	}
}

// All отдаёт окна по порядку. Последовательность можно обходить повторно.
func (t *Tiler) All() iter.Seq[entity.Tile] {
	return func(yield func(entity.Tile) bool) {
		for i := 0; i < t.Len(); i++ {
			if !yield(t.At(i)) {
				return
			}
		}
	}
}

// axisOffsets возвращает смещения окон вдоль одной оси.
func axisOffsets(size, tile, stride int) []int {
	if tile >= size {
		return []int{0}
	}
	offsets := make([]int, 0, (size-tile)/stride+2)
	for o := 0; ; o += stride {
		if o+tile >= size {
			offsets = append(offsets, size-tile)
			break
		}
		offsets = append(offsets, o)
	}
	return offsets
}
