package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"crack-inspector/internal/domain/entity"
)

const (
	ScorerHTTP = "http"
	ScorerONNX = "onnx"

	LoaderImaging = "imaging"
	LoaderGoCV    = "gocv"
)

type Config struct {
	TelegramToken string        `yaml:"telegram_token"`
	LogLevel      string        `yaml:"log_level"`
	LogPretty     bool          `yaml:"log_pretty"`
	Params        entity.Params `yaml:"params"`
	Scorer        ScorerConfig  `yaml:"scorer"`
	Input         InputConfig   `yaml:"input"`
	Output        OutputConfig  `yaml:"output"`
	Geo           GeoConfig     `yaml:"geo"`
}

// ScorerConfig выбор и настройки модели сегментации
type ScorerConfig struct {
	Kind        string        `yaml:"kind"` // http или onnx
	URL         string        `yaml:"url"`
	ReleaseURL  string        `yaml:"release_url"`
	Timeout     time.Duration `yaml:"timeout"`
	HealthCheck bool          `yaml:"health_check"`
	ModelPath   string        `yaml:"model_path"`
	LibraryPath string        `yaml:"library_path"`
	Threads     int           `yaml:"threads"`
	Mean        []float32     `yaml:"mean"`
	Std         []float32     `yaml:"std"`
}

// InputConfig откуда и чем читаются снимки.
// MaxImagePixels нужный предел OpenCV для loader: gocv. Сам предел задаётся только переменной
// OPENCV_IO_MAX_IMAGE_PIXELS до запуска процесса, при старте он сверяется с этим значением.
type InputConfig struct {
	Dir            string   `yaml:"dir"`
	Extensions     []string `yaml:"extensions"`
	Loader         string   `yaml:"loader"` // imaging или gocv
	AutoOrient     bool     `yaml:"auto_orient"`
	MaxImagePixels int64    `yaml:"max_image_pixels"`
}

// OutputConfig куда пишутся маски, подсветка и отчёты
type OutputConfig struct {
	Dir           string  `yaml:"dir"`
	DetailName    string  `yaml:"detail_name"`
	SummaryName   string  `yaml:"summary_name"`
	FailureName   string  `yaml:"failure_name"`
	MaskSuffix    string  `yaml:"mask_suffix"`
	OverlaySuffix string  `yaml:"overlay_suffix"`
	OverlayColor  string  `yaml:"overlay_color"`
	OverlayAlpha  float64 `yaml:"overlay_alpha"`
	SaveMasks     bool    `yaml:"save_masks"`
	OnlyCracked   bool    `yaml:"only_cracked"`
	ChatMaxSide   int     `yaml:"chat_max_side"`
}

// GeoConfig координаты для снимков без геометки в имени (Сеульская мэрия)
type GeoConfig struct {
	DefaultLatitude  float64 `yaml:"default_latitude"`
	DefaultLongitude float64 `yaml:"default_longitude"`
}

// Default возвращает настройки по умолчанию.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Params: entity.Params{
			WindowSize:       1024,
			OverlapRatio:     0.5,
			ScoreThreshold:   0.5,
			MinimumArea:      500,
			Connectivity:     8,
			AcceleratorUnits: 1,
		},
		Scorer: ScorerConfig{
			Kind:    ScorerHTTP,
			URL:     "http://localhost:8000/predict",
			Timeout: 60 * time.Second,
			Mean:    []float32{123.675, 116.28, 103.53},
			Std:     []float32{58.395, 57.12, 57.375},
		},
		Input: InputConfig{
			Extensions:     []string{".jpg", ".jpeg", ".png", ".tif", ".tiff", ".webp"},
			Loader:         LoaderImaging,
			AutoOrient:     true,
			MaxImagePixels: 1 << 40,
		},
		Output: OutputConfig{
			Dir:           "results",
			DetailName:    "crack_measurements.csv",
			SummaryName:   "detection_summary.csv",
			FailureName:   "failures.csv",
			MaskSuffix:    "_mask.png",
			OverlaySuffix: "_overlay.jpg",
			OverlayColor:  "#FF0000",
			OverlayAlpha:  0.8,
			SaveMasks:     true,
			ChatMaxSide:   1280,
		},
		Geo: GeoConfig{
			DefaultLatitude:  37.5665,
			DefaultLongitude: 126.9780,
		},
	}
}

// Load собирает настройки: значения по умолчанию, затем YAML-файл (path или CRACK_CONFIG),
// затем переменные окружения, в том числе из .env.
func Load(path string) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("CRACK_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", entity.ErrInvalidConfig, path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("TELEGRAM_TOKEN", &c.TelegramToken)
	str("LOG_LEVEL", &c.LogLevel)
	boolean("LOG_PRETTY", &c.LogPretty)

	integer("WINDOW_SIZE", &c.Params.WindowSize)
	float("OVERLAP_RATIO", &c.Params.OverlapRatio)
	float("SCORE_THRESHOLD", &c.Params.ScoreThreshold)
	integer("MIN_CRACK_AREA", &c.Params.MinimumArea)
	float("MIN_CRACK_WIDTH", &c.Params.MinimumWidth)
	float("MIN_CRACK_LENGTH", &c.Params.MinimumLength)
	integer("CONNECTIVITY", &c.Params.Connectivity)
	integer("ACCELERATOR_UNITS", &c.Params.AcceleratorUnits)

	str("SCORER_KIND", &c.Scorer.Kind)
	str("SCORER_URL", &c.Scorer.URL)
	str("SCORER_RELEASE_URL", &c.Scorer.ReleaseURL)
	if v, ok := os.LookupEnv("SCORER_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("SCORER_TIMEOUT: %w", err))
		} else {
			c.Scorer.Timeout = d
		}
	}
	str("ONNX_MODEL_PATH", &c.Scorer.ModelPath)
	str("ONNX_LIBRARY_PATH", &c.Scorer.LibraryPath)

	str("INPUT_DIR", &c.Input.Dir)
	str("IMAGE_LOADER", &c.Input.Loader)
	str("OUTPUT_DIR", &c.Output.Dir)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrInvalidConfig, err)
	}
	return nil
}

// Validate проверяет настройки целиком; ошибка оборачивает entity.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}

	switch c.Scorer.Kind {
	case ScorerHTTP:
		if c.Scorer.URL == "" {
			return fmt.Errorf("%w: scorer.url is required for the http scorer", entity.ErrInvalidConfig)
		}
		if c.Scorer.Timeout <= 0 {
			return fmt.Errorf("%w: scorer.timeout must be positive", entity.ErrInvalidConfig)
		}
	case ScorerONNX:
		if c.Scorer.ModelPath == "" {
			return fmt.Errorf("%w: scorer.model_path is required for the onnx scorer", entity.ErrInvalidConfig)
		}
		if len(c.Scorer.Mean) != 3 || len(c.Scorer.Std) != 3 {
			return fmt.Errorf("%w: scorer.mean and scorer.std need 3 values", entity.ErrInvalidConfig)
		}
		for _, s := range c.Scorer.Std {
			if s == 0 {
				return fmt.Errorf("%w: scorer.std must not contain zero", entity.ErrInvalidConfig)
			}
		}
	default:
		return fmt.Errorf("%w: unknown scorer kind %q", entity.ErrInvalidConfig, c.Scorer.Kind)
	}

	if c.Input.Loader != LoaderImaging && c.Input.Loader != LoaderGoCV {
		return fmt.Errorf("%w: unknown image loader %q", entity.ErrInvalidConfig, c.Input.Loader)
	}
	if c.Input.Loader == LoaderGoCV && c.Input.MaxImagePixels <= 0 {
		return fmt.Errorf("%w: input.max_image_pixels must be positive for the gocv loader", entity.ErrInvalidConfig)
	}
	if c.Output.OverlayAlpha < 0 || c.Output.OverlayAlpha > 1 {
		return fmt.Errorf("%w: output.overlay_alpha must be in [0,1], got %g", entity.ErrInvalidConfig, c.Output.OverlayAlpha)
	}
	return nil
}

// Channels возвращает нормировку модели как массивы по каналам RGB.
func (s ScorerConfig) Channels() (mean, std [3]float32) {
	copy(mean[:], s.Mean)
	copy(std[:], s.Std)
	return mean, std
}
