package entity

import "fmt"

// Params параметры конвейера: нарезка, склейка и фильтры.
// Значения по умолчанию задаёт слой конфигурации, здесь их нет.
type Params struct {
	WindowSize       int     `yaml:"window_size"`
	OverlapRatio     float64 `yaml:"overlap_ratio"`
	ScoreThreshold   float64 `yaml:"score_threshold"`
	MinimumArea      int     `yaml:"minimum_area"`
	MinimumWidth     float64 `yaml:"minimum_width"`
	MinimumLength    float64 `yaml:"minimum_length"`
	Connectivity     int     `yaml:"connectivity"`
	AcceleratorUnits int     `yaml:"accelerator_units"` // сколько окон одновременно отдаём модели
}

// Validate проверяет параметры; ошибка оборачивает ErrInvalidConfig.
func (p Params) Validate() error {
	if p.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size must be positive, got %d", ErrInvalidConfig, p.WindowSize)
	}
	if p.OverlapRatio < 0 || p.OverlapRatio >= 1 {
		return fmt.Errorf("%w: overlap_ratio must be in [0,1), got %g", ErrInvalidConfig, p.OverlapRatio)
	}
	if p.ScoreThreshold < 0 || p.ScoreThreshold > 1 {
		return fmt.Errorf("%w: score_threshold must be in [0,1], got %g", ErrInvalidConfig, p.ScoreThreshold)
	}
	if p.MinimumArea < 0 || p.MinimumWidth < 0 || p.MinimumLength < 0 {
		return fmt.Errorf("%w: minimum_area, minimum_width and minimum_length must be non-negative", ErrInvalidConfig)
	}
	if p.Connectivity != 4 && p.Connectivity != 8 {
		return fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrInvalidConfig, p.Connectivity)
	}
	if p.AcceleratorUnits < 1 {
		return fmt.Errorf("%w: accelerator_units must be at least 1, got %d", ErrInvalidConfig, p.AcceleratorUnits)
	}
	return nil
}

// Stride возвращает шаг окна: window_size*(1-overlap_ratio), не меньше 1.
func (p Params) Stride() int {
	stride := int(float64(p.WindowSize) * (1 - p.OverlapRatio))
	if stride < 1 {
		return 1
	}
	return stride
}
