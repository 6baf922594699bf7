package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/scoring"
)

func detect(r domain.SensorReading) []domain.Anomaly {
	return Detect(r, scoring.ComputeComponentScores(r))
}

func kinds(as []domain.Anomaly) []domain.AnomalyKind {
	out := make([]domain.AnomalyKind, 0, len(as))
	for _, a := range as {
		out = append(out, a.Kind)
	}
	return out
}

func TestDetectCleanReading(t *testing.T) {
	r := domain.SensorReading{AirQuality: 30, FloorMoisture: 20, Humidity: 50, Temperature: 23, FootfallCount: 10}

	assert.Empty(t, detect(r))
}

func TestDetectOdorSpike(t *testing.T) {
	r := domain.SensorReading{AirQuality: 85, FloorMoisture: 20, Humidity: 50, Temperature: 23}

	got := detect(r)
	require.Len(t, got, 1)
	assert.Equal(t, domain.OdorSpike, got[0].Kind)
	assert.Equal(t, domain.SeverityHigh, got[0].Severity)
	assert.Equal(t, 85.0, got[0].Value)
}

func TestDetectThresholdsAreStrict(t *testing.T) {
	r := domain.SensorReading{AirQuality: 70, FloorMoisture: 60, Humidity: 50, Temperature: 35, FootfallCount: 50}

	assert.Empty(t, detect(r))

	r.Temperature = 10
	assert.Empty(t, detect(r))
}

func TestDetectTemperatureMessageCarriesValue(t *testing.T) {
	got := detect(domain.SensorReading{AirQuality: 10, Temperature: 36.5})

	require.Len(t, got, 1)
	assert.Equal(t, domain.TemperatureAnomaly, got[0].Kind)
	assert.Equal(t, domain.SeverityMedium, got[0].Severity)
	assert.Equal(t, "Unusual temperature: 36.5°C", got[0].Message)

	got = detect(domain.SensorReading{AirQuality: 10, Temperature: 4})
	require.Len(t, got, 1)
	assert.Equal(t, "Unusual temperature: 4°C", got[0].Message)
}

func TestDetectHighUsageNeedsPoorAir(t *testing.T) {
	busy := domain.SensorReading{AirQuality: 65, Temperature: 23, FootfallCount: 80}
	got := detect(busy)
	require.Len(t, got, 1)
	assert.Equal(t, domain.HighUsage, got[0].Kind)
	assert.Equal(t, 80.0, got[0].Value)

	busy.AirQuality = 60
	assert.Empty(t, detect(busy), "air score of exactly 40 is not poor")
}

func TestDetectRulesAreIndependentAndOrdered(t *testing.T) {
	r := domain.SensorReading{AirQuality: 90, FloorMoisture: 75, Temperature: 40, FootfallCount: 70}

	got := detect(r)
	assert.Equal(t, []domain.AnomalyKind{
		domain.OdorSpike,
		domain.MoistureAlert,
		domain.TemperatureAnomaly,
		domain.HighUsage,
	}, kinds(got))
}

func TestDetectIsDeterministic(t *testing.T) {
	r := domain.SensorReading{AirQuality: 90, FloorMoisture: 75, Temperature: 2, FootfallCount: 70}
	first := detect(r)

	for i := 0; i < 20; i++ {
		assert.Equal(t, first, detect(r))
	}
}

func TestDetectMissingAirScoreCountsAsHealthy(t *testing.T) {
	r := domain.SensorReading{AirQuality: 10, Temperature: 23, FootfallCount: 90}

	assert.Empty(t, Detect(r, domain.ComponentScores{}))
}
