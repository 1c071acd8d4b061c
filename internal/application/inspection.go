package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"crack-inspector/internal/domain/crack"
	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

// InspectionService прогоняет снимки через конвейер поиска трещин.
type InspectionService struct {
	params      entity.Params
	scorer      port.TileScorer
	loader      port.ImageLoader
	highlighter port.Highlighter
	artifacts   port.ArtifactWriter
	reports     port.ReportWriter
	log         zerolog.Logger
}

// InspectionOutput содержит результат поиска трещин и картинку с подсветкой.
type InspectionOutput struct {
	Result      *entity.ImageResult
	Highlighted []byte
}

// InspectionDeps зависимости сервиса. Loader, Highlighter, Artifacts и Reports необязательны.
type InspectionDeps struct {
	Scorer      port.TileScorer
	Loader      port.ImageLoader
	Highlighter port.Highlighter
	Artifacts   port.ArtifactWriter
	Reports     port.ReportWriter
}

// NewInspectionService создаёт сервис, который управляет проверкой снимков.
func NewInspectionService(params entity.Params, deps InspectionDeps, log zerolog.Logger) *InspectionService {
	return &InspectionService{
		params:      params,
		scorer:      deps.Scorer,
		loader:      deps.Loader,
		highlighter: deps.Highlighter,
		artifacts:   deps.Artifacts,
		reports:     deps.Reports,
		log:         log.With().Str("component", "inspection").Logger(),
	}
}

// Params возвращает параметры конвейера.
func (s *InspectionService) Params() entity.Params {
	return s.params
}

// InspectImage находит трещины на уже открытом снимке.
// При любой ошибке результат не возвращается, а память ускорителя освобождается в любом случае.
func (s *InspectionService) InspectImage(ctx context.Context, name string, img port.Image) (*entity.ImageResult, error) {
	if s.scorer == nil {
		return nil, errors.New("scorer is not configured")
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}

	height, width := img.Bounds()
	tiler, err := crack.NewTiler(height, width, s.params)
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", name, err)
	}
	stitcher, err := crack.NewStitcher(height, width, s.params)
	if err != nil {
		return nil, fmt.Errorf("stitch %s: %w", name, err)
	}

	start := time.Now()
	err = s.scoreTiles(ctx, name, img, tiler, stitcher)
	s.release(ctx, name)
	if err != nil {
		return nil, err
	}

	mask := stitcher.Mask()
	analysis, err := crack.Analyze(mask, s.params)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", name, err)
	}

	s.log.Info().
		Str("image", name).
		Int("tiles", tiler.Len()).
		Int("regions", len(analysis.Regions)).
		Int("cracks", len(analysis.Measurements)).
		Dur("elapsed", time.Since(start)).
		Msg("image inspected")

	return &entity.ImageResult{
		Image:        name,
		Height:       height,
		Width:        width,
		Tiles:        tiler.Len(),
		Mask:         mask,
		Measurements: analysis.Measurements,
	}, nil
}

// scoreTiles отдаёт окна модели, не больше AcceleratorUnits одновременно.
// Первая ошибка отменяет оставшиеся окна.
func (s *InspectionService) scoreTiles(ctx context.Context, name string, img port.Image, tiler *crack.Tiler, stitcher *crack.Stitcher) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.params.AcceleratorUnits)

feed:
	for tile := range tiler.All() {
		select {
		case <-ctx.Done():
			break feed
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(tile entity.Tile) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.scoreTile(ctx, name, img, tile, stitcher); err != nil {
				cancel(err)
			}
		}(tile)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}

func (s *InspectionService) scoreTile(ctx context.Context, name string, img port.Image, tile entity.Tile, stitcher *crack.Stitcher) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pixels, err := img.Tile(tile)
	if err != nil {
		return fmt.Errorf("crop tile %d of %s: %w", tile.Index, name, err)
	}

	pred, err := s.scorer.Score(ctx, pixels)
	if err == nil && pred == nil {
		err = errors.New("scorer returned no prediction")
	}
	if err != nil {
		return &entity.TileScoreFailedError{Image: name, TileIndex: tile.Index, Err: err}
	}

	if err := stitcher.Add(tile, pred); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// release сбрасывает рабочую память модели после снимка, даже если контекст уже отменён.
func (s *InspectionService) release(ctx context.Context, name string) {
	releaser, ok := s.scorer.(port.DeviceReleaser)
	if !ok {
		return
	}
	if err := releaser.Release(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Str("image", name).Msg("failed to release device")
	}
}

// ProcessImage открывает снимок с диска, ищет трещины и сохраняет маску и подсветку.
func (s *InspectionService) ProcessImage(ctx context.Context, path string) (*entity.ImageResult, error) {
	if s.loader == nil {
		return nil, errors.New("image loader is not configured")
	}

	img, err := s.loader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer img.Close()

	result, err := s.InspectImage(ctx, filepath.Base(path), img)
	if err != nil {
		return nil, err
	}

	if s.artifacts != nil {
		if err := s.artifacts.WriteArtifacts(ctx, img, result); err != nil {
			return nil, fmt.Errorf("write artifacts for %s: %w", result.Image, err)
		}
	}
	return result, nil
}

// InspectPhoto ищет трещины на снимке из памяти и возвращает подсветку, если они есть.
func (s *InspectionService) InspectPhoto(ctx context.Context, name string, photo []byte) (*InspectionOutput, error) {
	if s.loader == nil {
		return nil, errors.New("image loader is not configured")
	}

	img, err := s.loader.Decode(ctx, photo)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	defer img.Close()

	result, err := s.InspectImage(ctx, name, img)
	if err != nil {
		return nil, err
	}

	var highlighted []byte
	if result.HasCracks() && s.highlighter != nil {
		highlighted, err = s.highlighter.Highlight(img, result.Mask)
		if err != nil {
			s.log.Warn().Err(err).Str("image", name).Msg("failed to highlight cracks")
		}
	}

	return &InspectionOutput{Result: result, Highlighted: highlighted}, nil
}

// ProcessBatch обрабатывает снимки по порядку. Ошибка одного снимка попадает в отчёт
// и не останавливает пакет; неверные параметры останавливают его сразу.
// При отмене контекста возвращается отчёт по уже обработанным снимкам и ошибка контекста.
func (s *InspectionService) ProcessBatch(ctx context.Context, paths []string) (*entity.BatchReport, error) {
	if err := s.params.Validate(); err != nil {
		return nil, err
	}

	report := entity.NewBatchReport()
	log := s.log.With().Str("run", report.ID.String()).Logger()
	log.Info().Int("images", len(paths)).Msg("batch started")

	var runErr error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		result, err := s.ProcessImage(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			log.Error().Err(err).Str("image", path).Msg("image skipped")
			report.Failures = append(report.Failures, entity.ImageFailure{Image: filepath.Base(path), Err: err})
			continue
		}
		report.Results = append(report.Results, result)
	}
	report.Finished = time.Now()

	log.Info().
		Int("processed", report.Processed()).
		Int("failed", len(report.Failures)).
		Dur("elapsed", report.Finished.Sub(report.Started)).
		Msg("batch finished")

	if s.reports != nil {
		if err := s.reports.WriteReport(context.WithoutCancel(ctx), report); err != nil {
			return report, fmt.Errorf("write report: %w", err)
		}
	}
	return report, runErr
}
