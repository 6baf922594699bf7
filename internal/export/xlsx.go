package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

const (
	logSheet     = "Hygiene Log"
	summarySheet = "Summary"
)

// XLSXName is the spreadsheet companion of FileName.
func XLSXName(day time.Time) string {
	return "hygiene_log_" + day.Format(time.DateOnly) + ".xlsx"
}

// BuildWorkbook renders the day's results and summary as an xlsx file.
func BuildWorkbook(results []domain.ScoreResult, sum Summary, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(logSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, logSheet, 1, toAny(Header)); err != nil {
		f.Close()
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(logSheet, "A1", last, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, r := range results {
		values := []any{
			r.Timestamp.In(loc).Format(time.RFC3339),
			r.DeviceID,
			r.FinalScore,
			r.BaseScore,
			r.ComponentScores[domain.AirQuality],
			r.ComponentScores[domain.FloorMoisture],
			r.ComponentScores[domain.Humidity],
			r.ComponentScores[domain.Temperature],
			r.ComponentScores[domain.FootfallDensity],
			r.Reading.FootfallCount,
			len(r.Anomalies),
			string(r.Profile),
		}
		if err := writeRow(f, logSheet, i+2, values); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetPanes(logSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	if err := writeSummarySheet(f, sum, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, sum Summary, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	rows := [][]any{
		{"records", sum.Records},
		{"average_score", sum.AverageScore},
		{"min_score", sum.MinScore},
		{"max_score", sum.MaxScore},
		{"worst_trend", sum.WorstTrend},
		{"anomalies", sum.Anomalies},
		{},
		{"device_id", "records", "average_score", "min_score", "anomalies"},
	}
	for _, d := range sum.Devices {
		rows = append(rows, []any{d.DeviceID, d.Records, d.AverageScore, d.MinScore, d.Anomalies})
	}
	for i, values := range rows {
		if err := writeRow(f, summarySheet, i+1, values); err != nil {
			return err
		}
	}
	// Row 8 is the per-device header.
	if err := f.SetCellStyle(summarySheet, "A8", "E8", headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
