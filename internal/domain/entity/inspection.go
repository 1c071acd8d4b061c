package entity

import (
	"time"

	"github.com/google/uuid"
)

// ImageResult хранит итог обработки одного изображения.
type ImageResult struct {
	Image        string             // имя или путь изображения
	Height       int                // высота изображения
	Width        int                // ширина изображения
	Tiles        int                // число обработанных окон
	Mask         *Mask              // склеенная маска
	Measurements []CrackMeasurement // трещины в порядке обхода
}

// HasCracks сообщает, найдена ли хотя бы одна трещина.
func (r *ImageResult) HasCracks() bool {
	return len(r.Measurements) > 0
}

// ImageFailure изображение, которое пришлось бросить.
type ImageFailure struct {
	Image string
	Err   error
}

// BatchReport результаты пакетной обработки: успехи и список отказов.
type BatchReport struct {
	ID       uuid.UUID
	Started  time.Time
	Finished time.Time
	Results  []*ImageResult
	Failures []ImageFailure
}

// NewBatchReport создаёт пустой отчёт с новым идентификатором запуска.
func NewBatchReport() *BatchReport {
	return &BatchReport{
		ID:      uuid.New(),
		Started: time.Now(),
	}
}

// Processed возвращает общее число изображений в отчёте.
func (r *BatchReport) Processed() int {
	return len(r.Results) + len(r.Failures)
}
