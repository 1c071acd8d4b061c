package entity

import "image"

// Tile описывает прямоугольное окно исходного изображения.
type Tile struct {
	Index  int // порядковый номер окна в обходе
	Row    int // смещение по строкам
	Col    int // смещение по столбцам
	Height int // высота окна в пикселях
	Width  int // ширина окна в пикселях
}

// Rect возвращает окно в координатах image.Rectangle (X столбец, Y строка).
func (t Tile) Rect() image.Rectangle {
	return image.Rect(t.Col, t.Row, t.Col+t.Width, t.Row+t.Height)
}

// Contains проверяет, попадает ли пиксель в окно.
func (t Tile) Contains(row, col int) bool {
	return row >= t.Row && row < t.Row+t.Height && col >= t.Col && col < t.Col+t.Width
}

// TilePrediction ответ модели для одного окна.
// Labels и Scores хранятся построчно; Scores может быть nil, если модель не отдаёт уверенность.
type TilePrediction struct {
	Height int
	Width  int
	Labels []Label
	Scores []float32 // уверенность класса "трещина"
}

// NewTilePrediction создаёт пустой ответ заданного размера.
func NewTilePrediction(height, width int, withScores bool) *TilePrediction {
	p := &TilePrediction{
		Height: height,
		Width:  width,
		Labels: make([]Label, height*width),
	}
	if withScores {
		p.Scores = make([]float32, height*width)
	}
	return p
}

// HasScores сообщает, есть ли в ответе попиксельная уверенность.
func (p *TilePrediction) HasScores() bool {
	return p.Scores != nil
}

// At возвращает метку пикселя.
func (p *TilePrediction) At(row, col int) Label {
	return p.Labels[row*p.Width+col]
}

// Set записывает метку пикселя.
func (p *TilePrediction) Set(row, col int, label Label) {
	p.Labels[row*p.Width+col] = label
}
