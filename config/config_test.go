package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"crack-inspector/internal/domain/entity"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CRACK_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 1024, cfg.Params.WindowSize)
	require.Equal(t, 0.5, cfg.Params.OverlapRatio)
	require.Equal(t, 500, cfg.Params.MinimumArea)
	require.Equal(t, 8, cfg.Params.Connectivity)
	require.Equal(t, ScorerHTTP, cfg.Scorer.Kind)
	require.Equal(t, "#FF0000", cfg.Output.OverlayColor)
	require.Equal(t, 0.8, cfg.Output.OverlayAlpha)
	require.Equal(t, 37.5665, cfg.Geo.DefaultLatitude)
	require.Equal(t, int64(1)<<40, cfg.Input.MaxImagePixels)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
params:
  window_size: 512
  overlap_ratio: 0.25
  score_threshold: 0.6
  minimum_area: 100
  minimum_width: 1.5
  connectivity: 4
  accelerator_units: 2
scorer:
  kind: http
  url: http://gpu:9000/predict
  timeout: 90s
output:
  dir: /tmp/out
  overlay_color: "#00FF00"
`)
	t.Setenv("WINDOW_SIZE", "768")
	t.Setenv("SCORER_RELEASE_URL", "http://gpu:9000/release")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 768, cfg.Params.WindowSize)
	require.Equal(t, 0.25, cfg.Params.OverlapRatio)
	require.Equal(t, 0.6, cfg.Params.ScoreThreshold)
	require.Equal(t, 100, cfg.Params.MinimumArea)
	require.Equal(t, 1.5, cfg.Params.MinimumWidth)
	require.Equal(t, 4, cfg.Params.Connectivity)
	require.Equal(t, 2, cfg.Params.AcceleratorUnits)
	require.Equal(t, "http://gpu:9000/predict", cfg.Scorer.URL)
	require.Equal(t, "http://gpu:9000/release", cfg.Scorer.ReleaseURL)
	require.Equal(t, 90*time.Second, cfg.Scorer.Timeout)
	require.Equal(t, "/tmp/out", cfg.Output.Dir)
	require.Equal(t, "#00FF00", cfg.Output.OverlayColor)
	// не указанное в файле остаётся по умолчанию
	require.Equal(t, "_mask.png", cfg.Output.MaskSuffix)
}

func TestLoad_PathFromEnv(t *testing.T) {
	t.Setenv("CRACK_CONFIG", writeConfig(t, "params:\n  window_size: 256\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 256, cfg.Params.WindowSize)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad env number", func(t *testing.T) {
		t.Setenv("OVERLAP_RATIO", "half")
		_, err := Load(writeConfig(t, ""))
		require.ErrorIs(t, err, entity.ErrInvalidConfig)
		require.ErrorContains(t, err, "OVERLAP_RATIO")
	})

	t.Run("overlap out of range", func(t *testing.T) {
		_, err := Load(writeConfig(t, "params:\n  overlap_ratio: 1\n"))
		require.ErrorIs(t, err, entity.ErrInvalidConfig)
	})

	t.Run("broken yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "params: [\n"))
		require.ErrorIs(t, err, entity.ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

func TestValidate_Scorer(t *testing.T) {
	cfg := Default()
	cfg.Scorer.Kind = "grpc"
	require.ErrorIs(t, cfg.Validate(), entity.ErrInvalidConfig)

	cfg = Default()
	cfg.Scorer.Kind = ScorerONNX
	require.ErrorIs(t, cfg.Validate(), entity.ErrInvalidConfig)

	cfg.Scorer.ModelPath = "crack.onnx"
	require.NoError(t, cfg.Validate())

	cfg.Scorer.Std = []float32{1, 0, 1}
	require.ErrorIs(t, cfg.Validate(), entity.ErrInvalidConfig)

	cfg = Default()
	cfg.Input.Loader = "vips"
	require.ErrorIs(t, cfg.Validate(), entity.ErrInvalidConfig)

	cfg = Default()
	cfg.Input.Loader = LoaderGoCV
	require.NoError(t, cfg.Validate())
	cfg.Input.MaxImagePixels = 0
	require.ErrorIs(t, cfg.Validate(), entity.ErrInvalidConfig)

	cfg = Default()
	cfg.Output.OverlayAlpha = 2
	require.ErrorIs(t, cfg.Validate(), entity.ErrInvalidConfig)
}

func TestScorerConfig_Channels(t *testing.T) {
	mean, std := Default().Scorer.Channels()
	require.Equal(t, [3]float32{123.675, 116.28, 103.53}, mean)
	require.Equal(t, [3]float32{58.395, 57.12, 57.375}, std)
}
