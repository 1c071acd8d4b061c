package vision

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"crack-inspector/internal/domain/entity"
)

// gradient 40x60: R = столбец, G = строка.
func gradient() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 60, 40))
	for y := range 40 {
		for x := range 60 {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	return img
}

func TestRaster_TileCropsWindow(t *testing.T) {
	r := NewRaster(gradient())
	h, w := r.Bounds()
	require.Equal(t, 40, h)
	require.Equal(t, 60, w)

	tile, err := r.Tile(entity.Tile{Index: 5, Row: 10, Col: 20, Height: 8, Width: 16})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 16, 8), tile.Bounds())

	got := color.NRGBAModel.Convert(tile.At(3, 2)).(color.NRGBA)
	require.Equal(t, uint8(23), got.R)
	require.Equal(t, uint8(12), got.G)

	_, err = r.Tile(entity.Tile{Index: 6, Row: 35, Col: 0, Height: 10, Width: 10})
	require.ErrorIs(t, err, entity.ErrTileOutOfBounds)

	require.NoError(t, r.Close())
	_, err = r.Tile(entity.Tile{Height: 1, Width: 1})
	require.Error(t, err)
}

func TestRaster_NormalizesOrigin(t *testing.T) {
	sub := gradient().SubImage(image.Rect(10, 5, 30, 25))
	r := NewRaster(sub)

	tile, err := r.Tile(entity.Tile{Height: 1, Width: 1})
	require.NoError(t, err)
	got := color.NRGBAModel.Convert(tile.At(0, 0)).(color.NRGBA)
	require.Equal(t, uint8(10), got.R)
	require.Equal(t, uint8(5), got.G)
}

func TestLoader_DecodeAndOpen(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, gradient(), imaging.PNG))

	loader := NewLoader(true)
	ctx := context.Background()

	img, err := loader.Decode(ctx, buf.Bytes())
	require.NoError(t, err)
	h, w := img.Bounds()
	require.Equal(t, 40, h)
	require.Equal(t, 60, w)

	path := filepath.Join(t.TempDir(), "site_37.5_127.0.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	img, err = loader.Open(ctx, path)
	require.NoError(t, err)
	h, w = img.Bounds()
	require.Equal(t, 40, h)
	require.Equal(t, 60, w)

	_, err = loader.Decode(ctx, []byte("not an image"))
	require.Error(t, err)

	_, err = loader.Open(ctx, filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
}

func TestOverlay_BlendsOnlyCrackPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	src.SetNRGBA(0, 0, color.NRGBA{A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	src.SetNRGBA(2, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	mask := entity.NewMask(2, 4)
	mask.Set(0, 0, entity.LabelCrack)
	mask.Set(0, 1, entity.LabelCrack)

	overlay, err := NewOverlay("#FF0000", 0.8, 0)
	require.NoError(t, err)

	out, err := overlay.Render(NewRaster(src), mask)
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 204, G: 0, B: 0, A: 255}, out.NRGBAAt(0, 0))
	require.Equal(t, color.NRGBA{R: 255, G: 51, B: 51, A: 255}, out.NRGBAAt(1, 0))
	require.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, out.NRGBAAt(2, 0))

	_, err = overlay.Render(NewRaster(src), entity.NewMask(3, 3))
	require.ErrorIs(t, err, entity.ErrShapeMismatch)
}

func TestOverlay_TransparentPixelKeepsItsColor(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{B: 255})
	src.SetNRGBA(1, 0, color.NRGBA{B: 255})

	mask := entity.NewMask(1, 2)
	mask.Set(0, 0, entity.LabelCrack)

	overlay, err := NewOverlay("#FF0000", 0.5, 0)
	require.NoError(t, err)

	out, err := overlay.Render(NewRaster(src), mask)
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 128, G: 0, B: 128, A: 255}, out.NRGBAAt(0, 0))
	require.Equal(t, color.NRGBA{B: 255}, out.NRGBAAt(1, 0))
}

func TestOverlay_InvalidSettings(t *testing.T) {
	_, err := NewOverlay("red", 0.8, 0)
	require.Error(t, err)

	_, err = NewOverlay("#00FF00", 1.5, 0)
	require.Error(t, err)
}

func TestOverlay_HighlightFitsChatSize(t *testing.T) {
	overlay, err := NewOverlay("#FF0000", 0.8, 30)
	require.NoError(t, err)

	mask := entity.NewMask(40, 60)
	mask.Set(10, 10, entity.LabelCrack)

	data, err := overlay.Highlight(NewRaster(gradient()), mask)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 30, img.Bounds().Dx())
	require.Equal(t, 20, img.Bounds().Dy())
}

func TestMaskImage(t *testing.T) {
	mask := entity.NewMask(2, 3)
	mask.Set(1, 2, entity.LabelCrack)

	img := MaskImage(mask)
	require.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	require.Equal(t, uint8(255), img.GrayAt(2, 1).Y)
	require.Equal(t, uint8(0), img.GrayAt(0, 0).Y)
}

func TestArtifactWriter_WritesMaskAndOverlay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	overlay, err := NewOverlay("#FF0000", 0.8, 0)
	require.NoError(t, err)
	writer := NewArtifactWriter(dir, overlay, zerolog.Nop())

	mask := entity.NewMask(40, 60)
	mask.Set(3, 4, entity.LabelCrack)
	result := &entity.ImageResult{Image: "site_37.5_127.0.jpg", Height: 40, Width: 60, Mask: mask}

	require.NoError(t, writer.WriteArtifacts(context.Background(), NewRaster(gradient()), result))

	saved, err := imaging.Open(filepath.Join(dir, "site_37.5_127.0_mask.png"))
	require.NoError(t, err)
	r, _, _, _ := saved.At(4, 3).RGBA()
	require.Equal(t, uint32(0xffff), r)
	r, _, _, _ = saved.At(0, 0).RGBA()
	require.Zero(t, r)

	_, err = os.Stat(filepath.Join(dir, "site_37.5_127.0_overlay.jpg"))
	require.NoError(t, err)
}

func TestArtifactWriter_SkipsCleanImages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	writer := NewArtifactWriter(dir, nil, zerolog.Nop())
	writer.OnlyCracked = true

	result := &entity.ImageResult{Image: "clean.jpg", Height: 2, Width: 2, Mask: entity.NewMask(2, 2)}
	require.NoError(t, writer.WriteArtifacts(context.Background(), NewRaster(gradient()), result))

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}

func TestCheckPixelLimit(t *testing.T) {
	env := func(value string, set bool) func(string) (string, bool) {
		return func(key string) (string, bool) {
			require.Equal(t, PixelLimitEnv, key)
			return value, set
		}
	}
	const want = int64(1) << 40

	tests := []struct {
		name    string
		lookup  func(string) (string, bool)
		wantErr bool
	}{
		{"unset", env("", false), true},
		{"empty", env("  ", true), true},
		{"not a number", env("lots", true), true},
		{"too small", env("1073741824", true), true},
		{"exact", env("1099511627776", true), false},
		{"larger", env(" 2199023255552 ", true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPixelLimit(tt.lookup, want)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrPixelLimit)
				return
			}
			require.NoError(t, err)
		})
	}
}
