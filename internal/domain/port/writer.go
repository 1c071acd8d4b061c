package port

import (
	"context"

	"crack-inspector/internal/domain/entity"
)

// ArtifactWriter сохраняет маску и наложение для изображения
type ArtifactWriter interface {
	WriteArtifacts(ctx context.Context, src Image, result *entity.ImageResult) error
}

// ReportWriter выгружает результаты пакета
type ReportWriter interface {
	WriteReport(ctx context.Context, report *entity.BatchReport) error
}
