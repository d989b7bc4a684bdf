package stats

import (
	"math"

	"equipviz/internal/models"
)

// Summarize computes the aggregate for one valid record set in a single pass:
// per-column minimum, maximum, arithmetic mean and population standard
// deviation (sum of squared deviations divided by N), plus a count per
// equipment type. Category strings are counted exactly as written; no case or
// whitespace folding happens here.
//
// Every numeric result is rounded to two decimal places once, here, so all
// downstream consumers agree bit-for-bit. An empty record set yields nil
// numeric blocks and an empty distribution rather than an error.
func Summarize(records []models.EquipmentRecord) *models.Summary {
	summary := &models.Summary{
		TotalCount:       len(records),
		TypeDistribution: map[string]int{},
	}
	if len(records) == 0 {
		return summary
	}

	flowrate := newAccumulator()
	pressure := newAccumulator()
	temperature := newAccumulator()

	for _, rec := range records {
		flowrate.add(rec.Flowrate)
		pressure.add(rec.Pressure)
		temperature.add(rec.Temperature)
		summary.TypeDistribution[rec.Type]++
	}

	summary.Averages = &models.ColumnStats{
		Flowrate:    round2(flowrate.mean()),
		Pressure:    round2(pressure.mean()),
		Temperature: round2(temperature.mean()),
	}
	summary.Minimums = &models.ColumnStats{
		Flowrate:    round2(flowrate.min),
		Pressure:    round2(pressure.min),
		Temperature: round2(temperature.min),
	}
	summary.Maximums = &models.ColumnStats{
		Flowrate:    round2(flowrate.max),
		Pressure:    round2(pressure.max),
		Temperature: round2(temperature.max),
	}
	summary.StdDeviations = &models.ColumnStats{
		Flowrate:    round2(flowrate.populationStdDev()),
		Pressure:    round2(pressure.populationStdDev()),
		Temperature: round2(temperature.populationStdDev()),
	}

	return summary
}

type accumulator struct {
	count      int
	sum        float64
	sumSquares float64
	min        float64
	max        float64
}

func newAccumulator() *accumulator {
	return &accumulator{min: math.Inf(1), max: math.Inf(-1)}
}

func (a *accumulator) add(v float64) {
	a.count++
	a.sum += v
	a.sumSquares += v * v
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
}

func (a *accumulator) mean() float64 {
	return a.sum / float64(a.count)
}

// populationStdDev divides by N, not N-1. The variance is clamped at zero to
// absorb floating-point cancellation on constant columns.
func (a *accumulator) populationStdDev() float64 {
	mean := a.mean()
	variance := a.sumSquares/float64(a.count) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
