package vision

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

// LabelMask читает файл разметки, где значение пикселя это номер класса,
// и отмечает трещиной пиксели со значением label. Разметка другого размера
// приводится к height×width ближайшим соседом.
func LabelMask(path string, label uint32, height, width int) (*entity.Mask, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmptyImage, path)
	}

	mask := entity.NewMask(height, width)
	for row := range height {
		y := b.Min.Y + row*b.Dy()/height
		for col := range width {
			x := b.Min.X + col*b.Dx()/width
			if classAt(img, x, y) == label {
				mask.Set(row, col, entity.LabelCrack)
			}
		}
	}
	return mask, nil
}

// classAt номер класса: индекс палитры, яркость серого или красный канал.
func classAt(img image.Image, x, y int) uint32 {
	switch m := img.(type) {
	case *image.Paletted:
		return uint32(m.ColorIndexAt(x, y))
	case *image.Gray:
		return uint32(m.GrayAt(x, y).Y)
	case *image.Gray16:
		return uint32(m.Gray16At(x, y).Y)
	default:
		return uint32(color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA).R)
	}
}

// Compare ставит рядом снимок с подсветкой и разметку, раскрашенную цветом подсветки по чёрному.
func (o *Overlay) Compare(src port.Image, mask *entity.Mask) (*image.NRGBA, error) {
	left, err := o.Render(src, mask)
	if err != nil {
		return nil, err
	}

	r, g, b := o.color.Clamped().RGB255()
	fill := color.NRGBA{R: r, G: g, B: b, A: 255}
	right := imaging.New(mask.Width, mask.Height, color.Black)
	for row := range mask.Height {
		for col := range mask.Width {
			if mask.At(row, col) == entity.LabelCrack {
				right.SetNRGBA(col, row, fill)
			}
		}
	}

	out := imaging.New(2*mask.Width, mask.Height, color.Black)
	out = imaging.Paste(out, left, image.Pt(0, 0))
	return imaging.Paste(out, right, image.Pt(mask.Width, 0)), nil
}

// GroundTruthStats итог прохода по каталогу
type GroundTruthStats struct {
	Rendered int
	Skipped  int
}

// GroundTruthRenderer рисует готовую разметку поверх снимков для сверки глазами.
// Разметка ищется в отдельном каталоге по имени снимка без расширения.
type GroundTruthRenderer struct {
	Label   uint32 // номер класса трещины в разметке
	MaskExt string // например ".png"
	Suffix  string // например "_visualized"

	overlay *Overlay
	loader  port.ImageLoader
	log     zerolog.Logger
}

func NewGroundTruthRenderer(overlay *Overlay, loader port.ImageLoader, log zerolog.Logger) *GroundTruthRenderer {
	return &GroundTruthRenderer{
		Label:   uint32(entity.LabelCrack),
		MaskExt: ".png",
		Suffix:  "_visualized",
		overlay: overlay,
		loader:  loader,
		log:     log.With().Str("component", "groundtruth").Logger(),
	}
}

// RenderDir сохраняет сравнение для каждого снимка, у которого есть разметка с нужным классом.
// Снимки без разметки, без класса или с ошибкой чтения пропускаются.
func (g *GroundTruthRenderer) RenderDir(ctx context.Context, images []string, maskDir, outDir string) (GroundTruthStats, error) {
	var stats GroundTruthStats
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return stats, fmt.Errorf("create output dir: %w", err)
	}

	for _, path := range images {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		maskPath := filepath.Join(maskDir, stem+g.MaskExt)
		if _, err := os.Stat(maskPath); err != nil {
			g.log.Debug().Str("image", path).Msg("no ground truth, skipped")
			stats.Skipped++
			continue
		}

		rendered, err := g.render(ctx, path, maskPath, outDir, stem)
		if err != nil {
			g.log.Warn().Err(err).Str("image", path).Msg("ground truth skipped")
			stats.Skipped++
			continue
		}
		if !rendered {
			g.log.Info().Str("image", path).Uint32("label", g.Label).Msg("label not found in ground truth")
			stats.Skipped++
			continue
		}
		stats.Rendered++
	}

	g.log.Info().Int("rendered", stats.Rendered).Int("skipped", stats.Skipped).Str("out", outDir).Msg("ground truth rendered")
	return stats, nil
}

func (g *GroundTruthRenderer) render(ctx context.Context, path, maskPath, outDir, stem string) (bool, error) {
	img, err := g.loader.Open(ctx, path)
	if err != nil {
		return false, fmt.Errorf("open image: %w", err)
	}
	defer img.Close()

	height, width := img.Bounds()
	mask, err := LabelMask(maskPath, g.Label, height, width)
	if err != nil {
		return false, fmt.Errorf("read ground truth: %w", err)
	}
	if mask.Count(entity.LabelCrack) == 0 {
		return false, nil
	}

	out, err := g.overlay.Compare(img, mask)
	if err != nil {
		return false, err
	}

	ext := filepath.Ext(path)
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		ext = ".png"
	}
	dst := filepath.Join(outDir, stem+g.Suffix+ext)
	if err := imaging.Save(out, dst, imaging.JPEGQuality(95)); err != nil {
		return false, fmt.Errorf("save comparison: %w", err)
	}
	g.log.Debug().Str("path", dst).Msg("comparison saved")
	return true, nil
}
