package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"crack-inspector/internal/domain/entity"
)

// ImageSummary сводка по снимку с трещинами
type ImageSummary struct {
	Image      string
	Location   GeoTag
	Geotagged  bool // координаты взяты из имени файла
	CrackCount int
	MaxSize    float64 // наибольшее произведение ширины на длину
	MeanWidth  float64
	MeanLength float64
	TotalArea  int
}

// Summarize считает сводку. Снимки без трещин в сводку не попадают.
func Summarize(result *entity.ImageResult, fallback GeoTag) (ImageSummary, bool) {
	if !result.HasCracks() {
		return ImageSummary{}, false
	}

	n := len(result.Measurements)
	sizes := make([]float64, n)
	widths := make([]float64, n)
	lengths := make([]float64, n)
	area := 0
	for i, m := range result.Measurements {
		sizes[i] = m.Size()
		widths[i] = m.Width
		lengths[i] = m.Length
		area += m.Area
	}

	location, tagged := ParseGeoTag(result.Image, fallback)
	return ImageSummary{
		Image:      result.Image,
		Location:   location,
		Geotagged:  tagged,
		CrackCount: n,
		MaxSize:    floats.Max(sizes),
		MeanWidth:  stat.Mean(widths, nil),
		MeanLength: stat.Mean(lengths, nil),
		TotalArea:  area,
	}, true
}
