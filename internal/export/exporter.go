// Package export writes the daily hygiene log files and schedules them.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/service"
)

// Uploader archives a finished export file and returns where it went.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

const (
	csvContentType  = "text/csv"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Exporter struct {
	History  service.HistoryReader
	Dir      string
	XLSX     bool
	Uploader Uploader
	// Location defines calendar day boundaries; nil means time.Local.
	Location *time.Location
}

type Report struct {
	Date     string
	CSVPath  string
	XLSXPath string
	Uploaded []string
	Summary  Summary
}

// ExportDay writes the log for the calendar day containing day. Results
// are read for [midnight, next midnight) in the exporter's location.
func (e *Exporter) ExportDay(ctx context.Context, day time.Time) (Report, error) {
	loc := e.location()
	day = day.In(loc)
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1)
	rep := Report{Date: from.Format(time.DateOnly)}

	results, err := e.History.ResultsBetween(ctx, from, to)
	if err != nil {
		return rep, fmt.Errorf("read history for %s: %w", rep.Date, err)
	}
	rep.Summary = Summarize(results)

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return rep, fmt.Errorf("create export dir: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, results, loc); err != nil {
		return rep, err
	}
	rep.CSVPath = filepath.Join(e.Dir, FileName(from))
	if err := writeFile(rep.CSVPath, buf.Bytes()); err != nil {
		return rep, err
	}
	files := map[string][]byte{FileName(from): buf.Bytes()}
	contentTypes := map[string]string{FileName(from): csvContentType}

	if e.XLSX {
		data, err := BuildWorkbook(results, rep.Summary, loc)
		if err != nil {
			return rep, err
		}
		rep.XLSXPath = filepath.Join(e.Dir, XLSXName(from))
		if err := writeFile(rep.XLSXPath, data); err != nil {
			return rep, err
		}
		files[XLSXName(from)] = data
		contentTypes[XLSXName(from)] = xlsxContentType
	}

	if e.Uploader != nil {
		for _, name := range []string{FileName(from), XLSXName(from)} {
			data, ok := files[name]
			if !ok {
				continue
			}
			key, err := e.Uploader.Upload(ctx, name, data, contentTypes[name])
			if err != nil {
				return rep, fmt.Errorf("upload %s: %w", name, err)
			}
			rep.Uploaded = append(rep.Uploaded, key)
		}
	}

	log.Info().
		Str("date", rep.Date).
		Str("file", rep.CSVPath).
		Int("records", rep.Summary.Records).
		Float64("average_score", rep.Summary.AverageScore).
		Msg("hygiene log exported")
	return rep, nil
}

func (e *Exporter) location() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.Local
}

// writeFile replaces path atomically so a reader never sees a partial log.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
