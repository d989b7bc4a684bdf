package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"equipviz/internal/models"
)

var ErrEmptyDistribution = errors.New("type distribution is empty")

// RenderDistributionChart draws the equipment type distribution of one
// dataset as a PNG bar chart.
func RenderDistributionChart(dataset *models.Dataset) ([]byte, error) {
	summary, err := dataset.ParseSummary()
	if err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if len(summary.TypeDistribution) == 0 {
		return nil, ErrEmptyDistribution
	}

	bars := make([]chart.Value, 0, len(summary.TypeDistribution))
	for _, category := range sortedCategories(summary.TypeDistribution) {
		bars = append(bars, chart.Value{
			Label: category,
			Value: float64(summary.TypeDistribution[category]),
		})
	}

	graph := chart.BarChart{
		Title:    "Equipment Type Distribution",
		Width:    800,
		Height:   500,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
