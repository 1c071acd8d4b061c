package entity

import "fmt"

// CrackMeasurement итоговое измерение одной трещины.
type CrackMeasurement struct {
	Box       BoundingBox
	Width     float64 // средняя ширина в пикселях
	Length    float64 // длина по осевой линии в пикселях
	Area      int
	ClassID   int
	Collapsed bool // скелет выродился, размеры взяты из прямоугольника
}

// Size возвращает произведение ширины на длину.
func (m CrackMeasurement) Size() float64 {
	return m.Width * m.Length
}

// Dimensions форматирует размеры как "WxL".
func (m CrackMeasurement) Dimensions() string {
	return fmt.Sprintf("%.2fx%.2f", m.Width, m.Length)
}
