package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

// HTTPScorer отправляет окна во внешний сервис с моделью сегментации.
//
// Окно уходит PNG-файлом в поле "file" multipart-запроса. Сервис отвечает JSON:
//
//	{"height": 1024, "width": 1024, "labels": [0, 1, ...], "scores": [0.1, 0.9, ...]}
//
// labels и scores идут построчно; scores можно не присылать.
type HTTPScorer struct {
	inferenceURL string
	releaseURL   string // POST сюда после каждого снимка, чтобы сервис очистил память GPU
	client       *http.Client
	log          zerolog.Logger
}

type scoreResponse struct {
	Height int       `json:"height"`
	Width  int       `json:"width"`
	Labels []int     `json:"labels"`
	Scores []float32 `json:"scores,omitempty"`
}

func NewHTTPScorer(inferenceURL, releaseURL string, timeout time.Duration, log zerolog.Logger) *HTTPScorer {
	return &HTTPScorer{
		inferenceURL: inferenceURL,
		releaseURL:   releaseURL,
		client:       &http.Client{Timeout: timeout},
		log:          log.With().Str("component", "http_scorer").Logger(),
	}
}

// Score выполняет inference одного окна через внешний сервис
func (s *HTTPScorer) Score(ctx context.Context, tile image.Image) (*entity.TilePrediction, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "tile.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := imaging.Encode(part, tile, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode tile: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return result.prediction(tile.Bounds())
}

func (r *scoreResponse) prediction(bounds image.Rectangle) (*entity.TilePrediction, error) {
	if r.Height != bounds.Dy() || r.Width != bounds.Dx() || len(r.Labels) != r.Height*r.Width {
		return nil, &entity.ShapeMismatchError{
			WantHeight: bounds.Dy(),
			WantWidth:  bounds.Dx(),
			GotHeight:  r.Height,
			GotWidth:   r.Width,
		}
	}
	if r.Scores != nil && len(r.Scores) != len(r.Labels) {
		return nil, fmt.Errorf("response has %d scores for %d labels", len(r.Scores), len(r.Labels))
	}

	pred := entity.NewTilePrediction(r.Height, r.Width, false)
	for i, v := range r.Labels {
		if v != 0 {
			pred.Labels[i] = entity.LabelCrack
		}
	}
	pred.Scores = r.Scores
	return pred, nil
}

// Release просит сервис освободить память ускорителя
func (s *HTTPScorer) Release(ctx context.Context) error {
	if s.releaseURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.releaseURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("release failed with status: %d", resp.StatusCode)
	}
	s.log.Debug().Msg("device memory released")
	return nil
}

// CheckHealth проверяет доступность ML-сервиса
func (s *HTTPScorer) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(s.inferenceURL, "/")+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml service unhealthy: %d", resp.StatusCode)
	}

	return nil
}

var (
	_ port.TileScorer     = (*HTTPScorer)(nil)
	_ port.DeviceReleaser = (*HTTPScorer)(nil)
)
