package crack

import "crack-inspector/internal/domain/entity"

func testParams() entity.Params {
	return entity.Params{
		WindowSize:       10,
		OverlapRatio:     0.5,
		ScoreThreshold:   0.5,
		MinimumArea:      0,
		Connectivity:     8,
		AcceleratorUnits: 1,
	}
}

// maskFromRows строит маску из строк, где '#' это трещина.
func maskFromRows(rows ...string) *entity.Mask {
	m := entity.NewMask(len(rows), len(rows[0]))
	for r, row := range rows {
		for c, ch := range row {
			if ch == '#' {
				m.Set(r, c, entity.LabelCrack)
			}
		}
	}
	return m
}

func fillRect(m *entity.Mask, row, col, height, width int) {
	for r := row; r < row+height; r++ {
		for c := col; c < col+width; c++ {
			m.Set(r, c, entity.LabelCrack)
		}
	}
}
