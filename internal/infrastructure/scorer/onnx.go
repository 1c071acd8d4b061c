//go:build onnx
// +build onnx

package scorer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

var (
	initOnce sync.Once
	initErr  error
)

// ErrScorerClosed возвращается из Score после Close.
var ErrScorerClosed = errors.New("onnx scorer is closed")

func initOnnxRuntime(libraryPath string) error {
	initOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

// ONNXConfig настройки локальной модели
type ONNXConfig struct {
	ModelPath   string
	LibraryPath string // путь к libonnxruntime; пусто для системного
	Threads     int
	Mean        [3]float32
	Std         [3]float32
}

// ONNXScorer сегментация окна локальной ONNX-моделью (выход 1×C×H×W).
// Сессия не потокобезопасна, поэтому окна идут через неё по одному.
type ONNXScorer struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	options    *ort.SessionOptions
	inputName  string
	outputName string
	mean       [3]float32
	std        [3]float32
}

// NewONNXScorer загружает модель и создаёт сессию.
func NewONNXScorer(cfg ONNXConfig) (*ONNXScorer, error) {
	if err := initOnnxRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("init onnxruntime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("read model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.New("model has no inputs or outputs")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	if cfg.Threads > 0 {
		_ = options.SetIntraOpNumThreads(cfg.Threads)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		options,
	)
	if err != nil {
		options.Destroy()
		return nil, err
	}

	return &ONNXScorer{
		session:    session,
		options:    options,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		mean:       cfg.Mean,
		std:        cfg.Std,
	}, nil
}

// Score прогоняет окно через модель.
func (s *ONNXScorer) Score(ctx context.Context, tile image.Image) (*entity.TilePrediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := tile.Bounds()
	input := toCHW(tile, s.mean, s.std)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, ErrScorerClosed
	}

	inputShape := ort.NewShape(1, 3, int64(b.Dy()), int64(b.Dx()))
	inputTensor, err := ort.NewTensor(inputShape, input)
	if err != nil {
		return nil, err
	}
	defer inputTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, err
	}
	if outputs[0] == nil {
		return nil, errors.New("model returned no output")
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("unsupported output type")
	}
	return fromLogits(outputTensor.GetData(), outputTensor.GetShape(), b.Dy(), b.Dx())
}

// Close освобождает сессию.
func (s *ONNXScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	if s.options != nil {
		s.options.Destroy()
		s.options = nil
	}
	return nil
}

var _ port.TileScorer = (*ONNXScorer)(nil)
