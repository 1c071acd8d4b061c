package crack

import (
	"math"

	"crack-inspector/internal/domain/entity"
)

// Thin строит скелет толщиной в один пиксель (утончение Чжана–Суня).
// Маленькие пятна могут стянуться в точку или исчезнуть целиком.
func Thin(mask *entity.Mask) *entity.Mask {
	// Рамка в один пиксель избавляет от проверок границ.
	h, w := mask.Height+2, mask.Width+2
	grid := make([]uint8, h*w)
	for r := 0; r < mask.Height; r++ {
		for c := 0; c < mask.Width; c++ {
			if mask.At(r, c) == entity.LabelCrack {
				grid[(r+1)*w+c+1] = 1
			}
		}
	}

	var marked []int
	for changed := true; changed; {
		changed = false
		for pass := 0; pass < 2; pass++ {
			marked = marked[:0]
			for r := 1; r < h-1; r++ {
				for c := 1; c < w-1; c++ {
					i := r*w + c
					if grid[i] == 1 && removable(grid, i, w, pass) {
						marked = append(marked, i)
					}
				}
			}
			for _, i := range marked {
				grid[i] = 0
			}
			if len(marked) > 0 {
				changed = true
			}
		}
	}

	skel := entity.NewMask(mask.Height, mask.Width)
	for r := 0; r < mask.Height; r++ {
		for c := 0; c < mask.Width; c++ {
			if grid[(r+1)*w+c+1] == 1 {
				skel.Set(r, c, entity.LabelCrack)
			}
		}
	}
	return skel
}

func removable(grid []uint8, i, w, pass int) bool {
	// p2..p9 по часовой стрелке начиная с севера
	p := [8]uint8{
		grid[i-w], grid[i-w+1], grid[i+1], grid[i+w+1],
		grid[i+w], grid[i+w-1], grid[i-1], grid[i-w-1],
	}

	var b, a int
	for k := 0; k < 8; k++ {
		b += int(p[k])
		if p[k] == 0 && p[(k+1)%8] == 1 {
			a++
		}
	}
	if b < 2 || b > 6 || a != 1 {
		return false
	}

	north, east, south, west := p[0], p[2], p[4], p[6]
	if pass == 0 {
		return north*east*south == 0 && east*south*west == 0
	}
	return north*east*west == 0 && north*south*west == 0
}

// ArcLength считает длину скелета: 1 за шаг по оси и √2 за диагональный шаг.
// Диагональ не учитывается, если её уже обходит пара осевых шагов.
func ArcLength(skel *entity.Mask) float64 {
	on := func(r, c int) bool {
		return skel.Inside(r, c) && skel.At(r, c) == entity.LabelCrack
	}

	var length float64
	for r := 0; r < skel.Height; r++ {
		for c := 0; c < skel.Width; c++ {
			if !on(r, c) {
				continue
			}
			if on(r, c+1) {
				length++
			}
			if on(r+1, c) {
				length++
			}
			if on(r+1, c+1) && !on(r, c+1) && !on(r+1, c) {
				length += math.Sqrt2
			}
			if on(r+1, c-1) && !on(r, c-1) && !on(r+1, c) {
				length += math.Sqrt2
			}
		}
	}
	return length
}

// Endpoints считает концы скелета: пиксели ровно с одним соседом.
func Endpoints(skel *entity.Mask) int {
	ends := 0
	for r := 0; r < skel.Height; r++ {
		for c := 0; c < skel.Width; c++ {
			if skel.At(r, c) != entity.LabelCrack {
				continue
			}
			n := 0
			for _, o := range neighbors8 {
				nr, nc := r+o[0], c+o[1]
				if skel.Inside(nr, nc) && skel.At(nr, nc) == entity.LabelCrack {
					n++
				}
			}
			if n == 1 {
				ends++
			}
		}
	}
	return ends
}
