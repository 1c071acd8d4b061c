package crack

import "crack-inspector/internal/domain/entity"

// Analysis области и измерения одной маски.
type Analysis struct {
	Regions      []entity.Region
	Measurements []entity.CrackMeasurement
}

// Analyze выделяет области на маске и измеряет каждую.
func Analyze(mask *entity.Mask, params entity.Params) (*Analysis, error) {
	regions, err := ExtractRegions(mask, params.MinimumArea, params.Connectivity)
	if err != nil {
		return nil, err
	}

	measurements := make([]entity.CrackMeasurement, 0, len(regions))
	for _, region := range regions {
		if m, ok := Quantify(region, params); ok {
			measurements = append(measurements, m)
		}
	}

	return &Analysis{Regions: regions, Measurements: measurements}, nil
}
