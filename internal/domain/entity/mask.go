package entity

// Label класс пикселя маски
type Label uint8

const (
	LabelBackground Label = 0 // Фон
	LabelCrack      Label = 1 // Трещина
)

// Mask полноразмерная маска классов после склейки.
type Mask struct {
	Height int
	Width  int
	Pix    []Label // построчно, len = Height*Width
}

// NewMask создаёт маску, заполненную фоном.
func NewMask(height, width int) *Mask {
	return &Mask{
		Height: height,
		Width:  width,
		Pix:    make([]Label, height*width),
	}
}

// At возвращает метку пикселя.
func (m *Mask) At(row, col int) Label {
	return m.Pix[row*m.Width+col]
}

// Set записывает метку пикселя.
func (m *Mask) Set(row, col int, label Label) {
	m.Pix[row*m.Width+col] = label
}

// Inside проверяет, лежит ли пиксель внутри маски.
func (m *Mask) Inside(row, col int) bool {
	return row >= 0 && row < m.Height && col >= 0 && col < m.Width
}

// Count считает пиксели с заданной меткой.
func (m *Mask) Count(label Label) int {
	n := 0
	for _, v := range m.Pix {
		if v == label {
			n++
		}
	}
	return n
}
