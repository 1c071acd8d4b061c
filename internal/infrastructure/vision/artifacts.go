package vision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

// ArtifactWriter сохраняет маску и подсветку рядом с отчётом.
// Формат файла определяется по расширению суффикса.
type ArtifactWriter struct {
	Dir           string
	MaskSuffix    string // например "_mask.png"
	OverlaySuffix string // например "_overlay.jpg"
	SaveMasks     bool
	OnlyCracked   bool // не сохранять снимки без трещин

	overlay *Overlay
	log     zerolog.Logger
}

func NewArtifactWriter(dir string, overlay *Overlay, log zerolog.Logger) *ArtifactWriter {
	return &ArtifactWriter{
		Dir:           dir,
		MaskSuffix:    "_mask.png",
		OverlaySuffix: "_overlay.jpg",
		SaveMasks:     true,
		overlay:       overlay,
		log:           log.With().Str("component", "artifacts").Logger(),
	}
}

func (w *ArtifactWriter) WriteArtifacts(ctx context.Context, src port.Image, result *entity.ImageResult) error {
	if w.OnlyCracked && !result.HasCracks() {
		return nil
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	stem := strings.TrimSuffix(result.Image, filepath.Ext(result.Image))

	if w.SaveMasks && w.MaskSuffix != "" {
		path := filepath.Join(w.Dir, stem+w.MaskSuffix)
		if err := imaging.Save(MaskImage(result.Mask), path); err != nil {
			return fmt.Errorf("save mask: %w", err)
		}
		w.log.Debug().Str("path", path).Msg("mask saved")
	}

	if w.overlay != nil && w.OverlaySuffix != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := w.overlay.Render(src, result.Mask)
		if err != nil {
			return fmt.Errorf("render overlay: %w", err)
		}
		path := filepath.Join(w.Dir, stem+w.OverlaySuffix)
		if err := imaging.Save(out, path, imaging.JPEGQuality(95)); err != nil {
			return fmt.Errorf("save overlay: %w", err)
		}
		w.log.Debug().Str("path", path).Msg("overlay saved")
	}

	return nil
}

var _ port.ArtifactWriter = (*ArtifactWriter)(nil)
