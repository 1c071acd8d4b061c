package port

import (
	"context"
	"image"

	"crack-inspector/internal/domain/entity"
)

// Image исходный снимок, из которого вырезаются окна
type Image interface {
	// Bounds возвращает высоту и ширину в пикселях
	Bounds() (height, width int)

	// Tile возвращает пиксели окна
	Tile(t entity.Tile) (image.Image, error)

	// Close освобождает память снимка
	Close() error
}

// ImageLoader открывает снимки с диска или из памяти
type ImageLoader interface {
	Open(ctx context.Context, path string) (Image, error)
	Decode(ctx context.Context, data []byte) (Image, error)
}

// Highlighter рисует найденные трещины поверх снимка
type Highlighter interface {
	// Highlight возвращает закодированную картинку с подсветкой маски
	Highlight(src Image, mask *entity.Mask) ([]byte, error)
}
