// Package scoring turns raw washroom sensor readings into hygiene scores.
//
// All functions are pure: the caller supplies the reading, the weight table,
// the last cleaning time and the current time.
package scoring

import (
	"math"
	"time"

	"github.com/ANIKETSHETTY47/washroom-hygiene-monitor/internal/domain"
)

const (
	// DecayRate is the score lost per chargeable hour since the last cleaning.
	DecayRate = 0.5
	// DecayGrace is the period after a cleaning during which no decay applies.
	DecayGrace = time.Hour
	// MaxDecayHours caps the chargeable hours.
	MaxDecayHours = 8.0

	// footfallCapacity is the hourly footfall that maps to a density score of 0.
	footfallCapacity = 100.0
)

var weightProfiles = map[domain.ProfileName]domain.WeightProfile{
	domain.ProfileOffice: {
		domain.AirQuality:      0.30,
		domain.FloorMoisture:   0.25,
		domain.Humidity:        0.20,
		domain.Temperature:     0.15,
		domain.FootfallDensity: 0.10,
	},
	domain.ProfilePublic: {
		domain.AirQuality:      0.35,
		domain.FloorMoisture:   0.30,
		domain.Humidity:        0.15,
		domain.Temperature:     0.10,
		domain.FootfallDensity: 0.10,
	},
	domain.ProfileHospital: {
		domain.AirQuality:      0.40,
		domain.FloorMoisture:   0.30,
		domain.Humidity:        0.20,
		domain.Temperature:     0.05,
		domain.FootfallDensity: 0.05,
	},
	domain.ProfileRestaurant: {
		domain.AirQuality:      0.35,
		domain.FloorMoisture:   0.25,
		domain.Humidity:        0.20,
		domain.Temperature:     0.15,
		domain.FootfallDensity: 0.05,
	},
}

// Weights returns a copy of the weight table for profile. Unknown profiles
// fall back to the public table.
func Weights(profile domain.ProfileName) domain.WeightProfile {
	w, ok := weightProfiles[profile]
	if !ok {
		w = weightProfiles[domain.DefaultProfile]
	}
	out := make(domain.WeightProfile, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// ComputeComponentScores normalizes each sensor dimension to 0-100, higher is better.
func ComputeComponentScores(r domain.SensorReading) domain.ComponentScores {
	return domain.ComponentScores{
		domain.AirQuality:      clamp(100 - r.AirQuality),
		domain.FloorMoisture:   clamp(100 - r.FloorMoisture),
		domain.Humidity:        humidityScore(r.Humidity),
		domain.Temperature:     temperatureScore(r.Temperature),
		domain.FootfallDensity: clamp(100 - float64(r.FootfallCount)/footfallCapacity*100),
	}
}

// Optimal range 40-60%, steeper penalty above the range than below.
func humidityScore(h float64) float64 {
	switch {
	case h >= 40 && h <= 60:
		return 100
	case h < 40:
		return clamp(h * 2.5)
	default:
		return clamp(100 - (h-60)*2)
	}
}

// Optimal range 20-26°C.
func temperatureScore(t float64) float64 {
	switch {
	case t >= 20 && t <= 26:
		return 100
	case t < 20:
		return clamp(t * 5)
	default:
		return clamp(100 - (t-26)*5)
	}
}

// ComputeWeightedScore sums score×weight over the components present in
// weights and rounds the total to two decimals.
func ComputeWeightedScore(scores domain.ComponentScores, weights domain.WeightProfile) float64 {
	var total float64
	for _, c := range domain.Components {
		w, ok := weights[c]
		if !ok {
			continue
		}
		total += scores[c] * w
	}
	return Round2(total)
}

// ApplyDecay reduces base by DecayRate per hour elapsed since lastCleaned,
// after a one hour grace period and up to MaxDecayHours. A zero lastCleaned
// means the device has never been cleaned and no decay applies. The result
// is never above base nor below zero.
func ApplyDecay(base float64, lastCleaned, now time.Time) float64 {
	if lastCleaned.IsZero() {
		return base
	}
	elapsed := now.Sub(lastCleaned)
	if elapsed <= DecayGrace {
		return base
	}
	hours := math.Min((elapsed - DecayGrace).Hours(), MaxDecayHours)
	final := Round2(math.Max(0, base-hours*DecayRate))
	if final > base {
		return base
	}
	return final
}

// DecayAmount is the reduction ApplyDecay would apply for the given elapsed time.
func DecayAmount(elapsed time.Duration) float64 {
	if elapsed <= DecayGrace {
		return 0
	}
	return math.Min((elapsed-DecayGrace).Hours(), MaxDecayHours) * DecayRate
}

// Round2 rounds to two decimal places, half away from zero. Rounding works on
// the binary value of v*100, so a decimal tie that float64 cannot represent
// exactly goes to whichever side its stored value lies on: Round2(1.005) is 1.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
