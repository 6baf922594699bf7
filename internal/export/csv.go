package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

// Header is the fixed column set of the daily hygiene log.
var Header = []string{
	"timestamp",
	"device_id",
	"final_score",
	"base_score",
	"air_quality",
	"floor_moisture",
	"humidity",
	"temperature",
	"footfall_density",
	"footfall_count",
	"anomalies_count",
	"profile",
}

// FileName is the per-day export file name, e.g. hygiene_log_2024-04-09.csv.
func FileName(day time.Time) string {
	return "hygiene_log_" + day.Format(time.DateOnly) + ".csv"
}

func row(r domain.ScoreResult, loc *time.Location) []string {
	return []string{
		r.Timestamp.In(loc).Format(time.RFC3339),
		r.DeviceID,
		formatFloat(r.FinalScore),
		formatFloat(r.BaseScore),
		formatFloat(r.ComponentScores[domain.AirQuality]),
		formatFloat(r.ComponentScores[domain.FloorMoisture]),
		formatFloat(r.ComponentScores[domain.Humidity]),
		formatFloat(r.ComponentScores[domain.Temperature]),
		formatFloat(r.ComponentScores[domain.FootfallDensity]),
		strconv.Itoa(r.Reading.FootfallCount),
		strconv.Itoa(len(r.Anomalies)),
		string(r.Profile),
	}
}

// WriteCSV writes the header and one row per result in the given order.
func WriteCSV(w io.Writer, results []domain.ScoreResult, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(row(r, loc)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
