package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

// fakeImage отдаёт окна, по которым fakeScorer восстанавливает эталонную маску.
type fakeImage struct {
	name   string
	truth  *entity.Mask
	closed atomic.Bool
}

type fakeTile struct {
	*image.Gray
	owner string
	tile  entity.Tile
	truth *entity.Mask
}

func (f *fakeImage) Bounds() (int, int) {
	return f.truth.Height, f.truth.Width
}

func (f *fakeImage) Tile(t entity.Tile) (image.Image, error) {
	return fakeTile{
		Gray:  image.NewGray(image.Rect(0, 0, t.Width, t.Height)),
		owner: f.name,
		tile:  t,
		truth: f.truth,
	}, nil
}

func (f *fakeImage) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeLoader struct {
	images map[string]*fakeImage
}

func (l *fakeLoader) Open(ctx context.Context, path string) (port.Image, error) {
	img, ok := l.images[path]
	if !ok {
		return nil, fmt.Errorf("no such image %q", path)
	}
	return img, nil
}

func (l *fakeLoader) Decode(ctx context.Context, data []byte) (port.Image, error) {
	return l.Open(ctx, string(data))
}

// fakeScorer копирует эталонную маску в ответ и падает на заданных окнах.
type fakeScorer struct {
	failOn     map[string]int // имя снимка -> индекс окна
	badShapeOn map[string]int
	withScores bool
	delay      time.Duration

	mu       sync.Mutex
	scored   map[string]int
	inFlight atomic.Int32
	peak     atomic.Int32
	released atomic.Int32
}

func (s *fakeScorer) Score(ctx context.Context, pixels image.Image) (*entity.TilePrediction, error) {
	tile := pixels.(fakeTile)

	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	if s.scored == nil {
		s.scored = make(map[string]int)
	}
	s.scored[tile.owner]++
	s.mu.Unlock()

	if idx, ok := s.failOn[tile.owner]; ok && idx == tile.tile.Index {
		return nil, errors.New("device lost")
	}
	if idx, ok := s.badShapeOn[tile.owner]; ok && idx == tile.tile.Index {
		return entity.NewTilePrediction(tile.tile.Height+1, tile.tile.Width, false), nil
	}

	pred := entity.NewTilePrediction(tile.tile.Height, tile.tile.Width, s.withScores)
	for r := range tile.tile.Height {
		for c := range tile.tile.Width {
			label := tile.truth.At(tile.tile.Row+r, tile.tile.Col+c)
			pred.Set(r, c, label)
			if s.withScores && label == entity.LabelCrack {
				pred.Scores[r*pred.Width+c] = 0.9
			}
		}
	}
	return pred, nil
}

func (s *fakeScorer) Release(ctx context.Context) error {
	s.released.Add(1)
	return nil
}

func (s *fakeScorer) scoredTiles(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scored[name]
}

type fakeArtifacts struct {
	mu     sync.Mutex
	images []string
}

func (a *fakeArtifacts) WriteArtifacts(ctx context.Context, src port.Image, result *entity.ImageResult) error {
	a.mu.Lock()
	a.images = append(a.images, result.Image)
	a.mu.Unlock()
	return nil
}

type fakeReports struct {
	reports []*entity.BatchReport
}

func (r *fakeReports) WriteReport(ctx context.Context, report *entity.BatchReport) error {
	r.reports = append(r.reports, report)
	return nil
}

type fakeHighlighter struct{}

func (fakeHighlighter) Highlight(src port.Image, mask *entity.Mask) ([]byte, error) {
	return []byte(fmt.Sprintf("overlay:%d", mask.Count(entity.LabelCrack))), nil
}
