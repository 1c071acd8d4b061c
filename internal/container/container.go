package container

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"crack-inspector/config"
	app "crack-inspector/internal/application"
	"crack-inspector/internal/domain/port"
	"crack-inspector/internal/infrastructure/report"
	"crack-inspector/internal/infrastructure/scorer"
	"crack-inspector/internal/infrastructure/storage"
	"crack-inspector/internal/infrastructure/vision"
)

type Container struct {
	SessionService    *app.SessionService
	InspectionService *app.InspectionService

	closers []io.Closer
}

// New собирает сервисы приложения по настройкам.
func New(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{}

	tileScorer, err := c.newScorer(cfg, log)
	if err != nil {
		return nil, err
	}

	var loader port.ImageLoader
	switch cfg.Input.Loader {
	case config.LoaderGoCV:
		gocvLoader, err := vision.NewGoCVLoader(cfg.Input.MaxImagePixels)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("create gocv loader: %w", err)
		}
		loader = gocvLoader
	default:
		loader = vision.NewLoader(cfg.Input.AutoOrient)
	}

	overlay, err := vision.NewOverlay(cfg.Output.OverlayColor, cfg.Output.OverlayAlpha, cfg.Output.ChatMaxSide)
	if err != nil {
		c.Close()
		return nil, err
	}

	artifacts := vision.NewArtifactWriter(cfg.Output.Dir, overlay, log)
	artifacts.MaskSuffix = cfg.Output.MaskSuffix
	artifacts.OverlaySuffix = cfg.Output.OverlaySuffix
	artifacts.SaveMasks = cfg.Output.SaveMasks
	artifacts.OnlyCracked = cfg.Output.OnlyCracked

	reports := report.NewCSVWriter(cfg.Output.Dir, report.GeoTag{
		Latitude:  cfg.Geo.DefaultLatitude,
		Longitude: cfg.Geo.DefaultLongitude,
	}, log)
	reports.DetailName = cfg.Output.DetailName
	reports.SummaryName = cfg.Output.SummaryName
	reports.FailureName = cfg.Output.FailureName

	c.InspectionService = app.NewInspectionService(cfg.Params, app.InspectionDeps{
		Scorer:      tileScorer,
		Loader:      loader,
		Highlighter: overlay,
		Artifacts:   artifacts,
		Reports:     reports,
	}, log)
	c.SessionService = app.NewSessionService(storage.NewMemorySessionRepository())

	return c, nil
}

// NewGroundTruthRenderer собирает отрисовку готовой разметки. alpha доля цвета подсветки.
func NewGroundTruthRenderer(cfg *config.Config, alpha float64, log zerolog.Logger) (*vision.GroundTruthRenderer, error) {
	overlay, err := vision.NewOverlay(cfg.Output.OverlayColor, alpha, 0)
	if err != nil {
		return nil, err
	}
	return vision.NewGroundTruthRenderer(overlay, vision.NewLoader(cfg.Input.AutoOrient), log), nil
}

func (c *Container) newScorer(cfg *config.Config, log zerolog.Logger) (port.TileScorer, error) {
	switch cfg.Scorer.Kind {
	case config.ScorerONNX:
		mean, std := cfg.Scorer.Channels()
		s, err := scorer.NewONNXScorer(scorer.ONNXConfig{
			ModelPath:   cfg.Scorer.ModelPath,
			LibraryPath: cfg.Scorer.LibraryPath,
			Threads:     cfg.Scorer.Threads,
			Mean:        mean,
			Std:         std,
		})
		if err != nil {
			return nil, fmt.Errorf("create onnx scorer: %w", err)
		}
		c.closers = append(c.closers, s)
		return s, nil

	default:
		s := scorer.NewHTTPScorer(cfg.Scorer.URL, cfg.Scorer.ReleaseURL, cfg.Scorer.Timeout, log)
		if cfg.Scorer.HealthCheck {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Scorer.Timeout)
			defer cancel()
			if err := s.CheckHealth(ctx); err != nil {
				log.Warn().Err(err).Str("url", cfg.Scorer.URL).Msg("ml service is not healthy")
			}
		}
		return s, nil
	}
}

// Close освобождает модели.
func (c *Container) Close() {
	for _, closer := range c.closers {
		_ = closer.Close()
	}
	c.closers = nil
}
