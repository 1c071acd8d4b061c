package crack

import (
	"math"

	"crack-inspector/internal/domain/entity"
)

// Quantify измеряет одну область. Второе значение false, если область не прошла
// фильтры по площади, ширине или длине.
//
// Длина берётся по скелету. Утончение съедает примерно половину ширины на каждом
// свободном конце, поэтому длина L дополняется до корня уравнения
// length = L + e*width/2 при width = area/length, где e число концов скелета.
// Если скелет пуст или стянулся в точку, ширина и длина берутся как короткая и длинная
// стороны прямоугольника.
func Quantify(region entity.Region, params entity.Params) (entity.CrackMeasurement, bool) {
	if region.Area < params.MinimumArea || region.Mask == nil {
		return entity.CrackMeasurement{}, false
	}

	m := entity.CrackMeasurement{
		Box:     region.Box,
		Area:    region.Area,
		ClassID: int(entity.LabelCrack),
	}

	skel := Thin(region.Mask)
	arc := ArcLength(skel)
	if arc == 0 {
		short, long := region.Box.Height(), region.Box.Width()
		if short > long {
			short, long = long, short
		}
		m.Width = float64(short)
		m.Length = float64(long)
		m.Collapsed = true
	} else {
		area := float64(region.Area)
		ends := float64(Endpoints(skel))
		m.Length = (arc + math.Sqrt(arc*arc+2*ends*area)) / 2
		m.Width = area / m.Length
	}

	if m.Width < params.MinimumWidth || m.Length < params.MinimumLength {
		return entity.CrackMeasurement{}, false
	}
	return m, true
}
