// Package stats computes per-sensor summary statistics over a
// reconstructed display window.
//
// Percentiles use DDSketch with a 1% relative accuracy. Missing values
// are excluded from every statistic.
package stats

import (
	"math"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/AJ-SIM/heat-map/internal/series"
)

// DefaultAccuracy is the DDSketch relative accuracy.
const DefaultAccuracy = 0.01

// SensorSummary holds summary statistics for one sensor column.
type SensorSummary struct {
	Sensor string   `json:"sensor"`
	Count  int64    `json:"count"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Avg    float64  `json:"avg"`
	P50    *float64 `json:"p50,omitempty"`
	P90    *float64 `json:"p90,omitempty"`
	P95    *float64 `json:"p95,omitempty"`
	P99    *float64 `json:"p99,omitempty"`
}

// Summarize computes one summary per sensor column of the display.
// Columns with no present values are omitted.
func Summarize(d *series.Display) []SensorSummary {
	if d == nil || d.State != series.StateOK {
		return nil
	}

	summaries := make([]SensorSummary, 0, len(d.Columns))

	for col, name := range d.Columns {
		s := SensorSummary{
			Sensor: name,
			Min:    math.MaxFloat64,
			Max:    -math.MaxFloat64,
		}

		sketch, sketchErr := ddsketch.NewDefaultDDSketch(DefaultAccuracy)

		var sum float64
		for _, row := range d.Values {
			v := row[col]
			if v == nil {
				continue
			}

			s.Count++
			sum += *v
			if *v < s.Min {
				s.Min = *v
			}
			if *v > s.Max {
				s.Max = *v
			}
			if sketchErr == nil {
				sketch.Add(*v)
			}
		}

		if s.Count == 0 {
			continue
		}
		s.Avg = sum / float64(s.Count)

		if sketchErr == nil {
			s.P50 = quantile(sketch, 0.50)
			s.P90 = quantile(sketch, 0.90)
			s.P95 = quantile(sketch, 0.95)
			s.P99 = quantile(sketch, 0.99)
		}

		summaries = append(summaries, s)
	}

	return summaries
}

func quantile(sketch *ddsketch.DDSketch, q float64) *float64 {
	v, err := sketch.GetValueAtQuantile(q)
	if err != nil {
		return nil
	}
	return &v
}
