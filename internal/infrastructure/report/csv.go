package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

var (
	detailHeader  = []string{"Image_Name", "Pixel_Coordinates", "Measurements", "Class_ID"}
	summaryHeader = []string{"Image_Name", "Latitude", "Longitude", "Crack_Count", "Max_Size", "Mean_Width", "Mean_Length", "Total_Area"}
	failureHeader = []string{"Image_Name", "Error"}
)

// CSVWriter пишет отчёт пакета в каталог Dir.
// Пустое имя файла отключает соответствующую выгрузку.
type CSVWriter struct {
	Dir         string
	DetailName  string
	SummaryName string
	FailureName string
	Fallback    GeoTag

	log zerolog.Logger
}

func NewCSVWriter(dir string, fallback GeoTag, log zerolog.Logger) *CSVWriter {
	return &CSVWriter{
		Dir:         dir,
		DetailName:  "crack_measurements.csv",
		SummaryName: "detection_summary.csv",
		FailureName: "failures.csv",
		Fallback:    fallback,
		log:         log.With().Str("component", "report").Logger(),
	}
}

func (w *CSVWriter) WriteReport(ctx context.Context, report *entity.BatchReport) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	if w.DetailName != "" {
		if err := w.writeFile(w.DetailName, detailHeader, DetailRows(report)); err != nil {
			return err
		}
	}
	if w.SummaryName != "" {
		if err := w.writeFile(w.SummaryName, summaryHeader, SummaryRows(report, w.Fallback)); err != nil {
			return err
		}
	}
	if w.FailureName != "" && len(report.Failures) > 0 {
		if err := w.writeFile(w.FailureName, failureHeader, FailureRows(report)); err != nil {
			return err
		}
	}

	w.log.Info().
		Str("run", report.ID.String()).
		Str("dir", w.Dir).
		Int("images", len(report.Results)).
		Int("failures", len(report.Failures)).
		Msg("report written")
	return nil
}

func (w *CSVWriter) writeFile(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return f.Close()
}

// DetailRows строка на каждую трещину: имя, "(minr,minc)-(maxr,maxc)", "WxL", класс.
func DetailRows(report *entity.BatchReport) [][]string {
	var rows [][]string
	for _, result := range report.Results {
		for _, m := range result.Measurements {
			rows = append(rows, []string{
				result.Image,
				m.Box.String(),
				m.Dimensions(),
				strconv.Itoa(m.ClassID),
			})
		}
	}
	return rows
}

// SummaryRows строка на каждый снимок с трещинами.
func SummaryRows(report *entity.BatchReport, fallback GeoTag) [][]string {
	var rows [][]string
	for _, result := range report.Results {
		s, ok := Summarize(result, fallback)
		if !ok {
			continue
		}
		rows = append(rows, []string{
			s.Image,
			strconv.FormatFloat(s.Location.Latitude, 'f', -1, 64),
			strconv.FormatFloat(s.Location.Longitude, 'f', -1, 64),
			strconv.Itoa(s.CrackCount),
			strconv.FormatFloat(s.MaxSize, 'f', 2, 64),
			strconv.FormatFloat(s.MeanWidth, 'f', 2, 64),
			strconv.FormatFloat(s.MeanLength, 'f', 2, 64),
			strconv.Itoa(s.TotalArea),
		})
	}
	return rows
}

// FailureRows строка на каждый брошенный снимок.
func FailureRows(report *entity.BatchReport) [][]string {
	rows := make([][]string, 0, len(report.Failures))
	for _, f := range report.Failures {
		rows = append(rows, []string{f.Image, f.Err.Error()})
	}
	return rows
}

var _ port.ReportWriter = (*CSVWriter)(nil)
