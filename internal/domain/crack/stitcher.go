package crack

import (
	"fmt"
	"math"
	"sync"

	"crack-inspector/internal/domain/entity"
)

// Stitcher собирает ответы модели по окнам в одну маску.
//
// Для каждого пикселя копятся счётчики покрытия и голосов, а также максимальная
// уверенность класса "трещина". Итог не зависит от порядка, в котором пришли окна.
// Пиксель, покрытый одним окном, получает метку этого окна. Пиксель в зоне перекрытия
// становится трещиной, если агрегат не меньше порога: максимум уверенности, когда все
// покрывающие окна прислали уверенность, иначе доля голосов.
//
// Add можно вызывать из нескольких горутин.
type Stitcher struct {
	height    int
	width     int
	threshold float64

	mu     sync.Mutex
	cover  []uint16
	votes  []uint16
	scored []uint16
	best   []float32
}

// NewStitcher готовит аккумуляторы для изображения height×width.
func NewStitcher(height, width int, params entity.Params) (*Stitcher, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", entity.ErrEmptyImage, height, width)
	}
	if params.ScoreThreshold < 0 || params.ScoreThreshold > 1 {
		return nil, fmt.Errorf("%w: score_threshold must be in [0,1], got %g", entity.ErrInvalidConfig, params.ScoreThreshold)
	}
	if params.WindowSize > 0 {
		// Сетка даёт до ceil(window/stride) окон на ось, ещё одно добавляет прижатое к краю окно.
		perAxis := (params.WindowSize+params.Stride()-1)/params.Stride() + 1
		if perAxis*perAxis > math.MaxUint16 {
			return nil, fmt.Errorf("%w: overlap_ratio %g gives %d tiles per pixel", entity.ErrInvalidConfig, params.OverlapRatio, perAxis*perAxis)
		}
	}

	n := height * width
	return &Stitcher{
		height:    height,
		width:     width,
		threshold: params.ScoreThreshold,
		cover:     make([]uint16, n),
		votes:     make([]uint16, n),
		scored:    make([]uint16, n),
		best:      make([]float32, n),
	}, nil
}

// Add учитывает ответ модели для одного окна.
func (s *Stitcher) Add(tile entity.Tile, pred *entity.TilePrediction) error {
	if tile.Row < 0 || tile.Col < 0 || tile.Row+tile.Height > s.height || tile.Col+tile.Width > s.width {
		return fmt.Errorf("%w: tile %d at (%d,%d) size %dx%d in %dx%d image",
			entity.ErrTileOutOfBounds, tile.Index, tile.Row, tile.Col, tile.Height, tile.Width, s.height, s.width)
	}
	if pred == nil || pred.Height != tile.Height || pred.Width != tile.Width ||
		len(pred.Labels) != tile.Height*tile.Width ||
		(pred.HasScores() && len(pred.Scores) != len(pred.Labels)) {
		gotH, gotW := 0, 0
		if pred != nil {
			gotH, gotW = pred.Height, pred.Width
		}
		return &entity.ShapeMismatchError{
			TileIndex:  tile.Index,
			WantHeight: tile.Height,
			WantWidth:  tile.Width,
			GotHeight:  gotH,
			GotWidth:   gotW,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for r := 0; r < tile.Height; r++ {
		base := (tile.Row+r)*s.width + tile.Col
		for c := 0; c < tile.Width; c++ {
			i := base + c
			k := r*tile.Width + c
			s.cover[i]++
			if pred.Labels[k] == entity.LabelCrack {
				s.votes[i]++
			}
			if pred.HasScores() {
				s.scored[i]++
				if pred.Scores[k] > s.best[i] {
					s.best[i] = pred.Scores[k]
				}
			}
		}
	}
	return nil
}

// Mask возвращает итоговую маску. Непокрытые пиксели остаются фоном.
func (s *Stitcher) Mask() *entity.Mask {
	s.mu.Lock()
	defer s.mu.Unlock()

	mask := entity.NewMask(s.height, s.width)
	for i, cover := range s.cover {
		if s.crack(i, cover) {
			mask.Pix[i] = entity.LabelCrack
		}
	}
	return mask
}

func (s *Stitcher) crack(i int, cover uint16) bool {
	switch {
	case cover == 0:
		return false
	case cover == 1:
		return s.votes[i] == 1
	case s.scored[i] == cover:
		best := float64(s.best[i])
		return best > 0 && best >= s.threshold
	default:
		return s.votes[i] > 0 && float64(s.votes[i])/float64(cover) >= s.threshold
	}
}
