package crack

import (
	"fmt"

	"crack-inspector/internal/domain/entity"
)

var (
	neighbors4 = [][2]int{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}
	neighbors8 = [][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
)

func neighborOffsets(connectivity int) ([][2]int, error) {
	switch connectivity {
	case 4:
		return neighbors4, nil
	case 8:
		return neighbors8, nil
	default:
		return nil, fmt.Errorf("%w: connectivity must be 4 or 8, got %d", entity.ErrInvalidConfig, connectivity)
	}
}

// ExtractRegions находит связные области трещин и отбрасывает те, что меньше minArea.
// Области нумеруются в порядке первого появления при построчном обходе.
func ExtractRegions(mask *entity.Mask, minArea, connectivity int) ([]entity.Region, error) {
	offsets, err := neighborOffsets(connectivity)
	if err != nil {
		return nil, err
	}

	visited := make([]bool, len(mask.Pix))
	queue := make([]int, 0, 256)
	var regions []entity.Region

	for start, label := range mask.Pix {
		if label != entity.LabelCrack || visited[start] {
			continue
		}

		visited[start] = true
		queue = append(queue[:0], start)
		box := entity.BoundingBox{
			MinRow: start / mask.Width, MinCol: start % mask.Width,
			MaxRow: start / mask.Width, MaxCol: start % mask.Width,
		}

		// Очередь не укорачивается: после обхода в ней лежат все пиксели области.
		for head := 0; head < len(queue); head++ {
			r, c := queue[head]/mask.Width, queue[head]%mask.Width
			box.MinRow = min(box.MinRow, r)
			box.MaxRow = max(box.MaxRow, r)
			box.MinCol = min(box.MinCol, c)
			box.MaxCol = max(box.MaxCol, c)

			for _, o := range offsets {
				nr, nc := r+o[0], c+o[1]
				if !mask.Inside(nr, nc) {
					continue
				}
				ni := nr*mask.Width + nc
				if visited[ni] || mask.Pix[ni] != entity.LabelCrack {
					continue
				}
				visited[ni] = true
				queue = append(queue, ni)
			}
		}

		if len(queue) < minArea {
			continue
		}
		regions = append(regions, newRegion(len(regions)+1, box, queue, mask.Width))
	}

	return regions, nil
}

// newRegion вырезает пиксели области в локальную маску размером с её прямоугольник.
func newRegion(id int, box entity.BoundingBox, pixels []int, width int) entity.Region {
	local := entity.NewMask(box.Height(), box.Width())
	for _, idx := range pixels {
		local.Set(idx/width-box.MinRow, idx%width-box.MinCol, entity.LabelCrack)
	}
	return entity.Region{
		ID:   id,
		Area: len(pixels),
		Box:  box,
		Mask: local,
	}
}
