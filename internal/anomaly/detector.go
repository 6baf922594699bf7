package anomaly

import (
	"fmt"
	"strconv"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

const (
	odorLimit         = 70.0
	moistureLimit     = 60.0
	minTemperature    = 10.0
	maxTemperature    = 35.0
	highUsageFootfall = 50
	highUsageAirScore = 40.0
)

// Detect checks a reading against the fixed rule set. Rules are evaluated
// in a fixed order and each contributes at most one anomaly, so the same
// input always yields the same sequence.
func Detect(r domain.SensorReading, scores domain.ComponentScores) []domain.Anomaly {
	var out []domain.Anomaly

	if r.AirQuality > odorLimit {
		out = append(out, domain.Anomaly{
			Kind:     domain.OdorSpike,
			Severity: domain.SeverityHigh,
			Message:  "Severe odor/ammonia levels detected",
			Value:    r.AirQuality,
		})
	}

	if r.FloorMoisture > moistureLimit {
		out = append(out, domain.Anomaly{
			Kind:     domain.MoistureAlert,
			Severity: domain.SeverityHigh,
			Message:  "Wet floor or potential leakage detected",
			Value:    r.FloorMoisture,
		})
	}

	if r.Temperature < minTemperature || r.Temperature > maxTemperature {
		out = append(out, domain.Anomaly{
			Kind:     domain.TemperatureAnomaly,
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("Unusual temperature: %s°C", strconv.FormatFloat(r.Temperature, 'f', -1, 64)),
			Value:    r.Temperature,
		})
	}

	// A missing air score is treated as healthy.
	airScore, ok := scores[domain.AirQuality]
	if !ok {
		airScore = 100
	}
	if r.FootfallCount > highUsageFootfall && airScore < highUsageAirScore {
		out = append(out, domain.Anomaly{
			Kind:     domain.HighUsage,
			Severity: domain.SeverityMedium,
			Message:  "High usage detected, cleaning recommended",
			Value:    float64(r.FootfallCount),
		})
	}

	return out
}
