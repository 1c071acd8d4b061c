package port

import (
	"context"
	"image"

	"crack-inspector/internal/domain/entity"
)

// TileScorer интерфейс модели сегментации
type TileScorer interface {
	// Score возвращает попиксельные классы (и, если есть, уверенность) для одного окна.
	// Размер ответа должен совпадать с размером tile.
	Score(ctx context.Context, tile image.Image) (*entity.TilePrediction, error)
}

// DeviceReleaser реализуют модели, которым нужно освобождать память ускорителя
// после каждого изображения.
type DeviceReleaser interface {
	Release(ctx context.Context) error
}
