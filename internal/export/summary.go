package export

import (
	"math"
	"sort"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/scoring"
)

// trendWindow is the number of consecutive readings in the rolling average.
const trendWindow = 12

type DeviceSummary struct {
	DeviceID     string
	Records      int
	AverageScore float64
	MinScore     float64
	Anomalies    int
}

// Summary aggregates one day of results.
type Summary struct {
	Records      int
	AverageScore float64
	MinScore     float64
	MaxScore     float64
	// WorstTrend is the lowest rolling average over trendWindow readings,
	// zero when the day has fewer readings than the window.
	WorstTrend float64
	Anomalies  int
	Devices    []DeviceSummary
}

func Summarize(results []domain.ScoreResult) Summary {
	s := Summary{Records: len(results)}
	if len(results) == 0 {
		return s
	}

	points := toPoints(results)
	s.AverageScore = scoring.Round2(aggregator.Average(points))
	s.MinScore, s.MaxScore = math.Inf(1), math.Inf(-1)
	for _, r := range results {
		s.MinScore = math.Min(s.MinScore, r.FinalScore)
		s.MaxScore = math.Max(s.MaxScore, r.FinalScore)
		s.Anomalies += len(r.Anomalies)
	}
	if len(points) >= trendWindow {
		s.WorstTrend = math.Inf(1)
		for _, v := range aggregator.MovingAverage(points, trendWindow) {
			s.WorstTrend = math.Min(s.WorstTrend, v)
		}
		if math.IsInf(s.WorstTrend, 1) {
			s.WorstTrend = 0
		}
		s.WorstTrend = scoring.Round2(s.WorstTrend)
	}

	byDevice := make(map[string][]domain.ScoreResult)
	for _, r := range results {
		byDevice[r.DeviceID] = append(byDevice[r.DeviceID], r)
	}
	for id, rs := range byDevice {
		d := DeviceSummary{
			DeviceID:     id,
			Records:      len(rs),
			AverageScore: scoring.Round2(aggregator.Average(toPoints(rs))),
			MinScore:     math.Inf(1),
		}
		for _, r := range rs {
			d.MinScore = math.Min(d.MinScore, r.FinalScore)
			d.Anomalies += len(r.Anomalies)
		}
		s.Devices = append(s.Devices, d)
	}
	sort.Slice(s.Devices, func(i, j int) bool { return s.Devices[i].DeviceID < s.Devices[j].DeviceID })
	return s
}

func toPoints(results []domain.ScoreResult) []aggregator.Point {
	points := make([]aggregator.Point, len(results))
	for i, r := range results {
		points[i] = aggregator.Point{Value: r.FinalScore, Timestamp: r.Timestamp}
	}
	return points
}
