package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"equipviz/internal/models"
)

// RenderXLSX exports one dataset as an Excel workbook with a Summary sheet
// and a Data sheet holding every uploaded row.
func RenderXLSX(dataset *models.Dataset) ([]byte, error) {
	rows, err := dataset.ParseRawData()
	if err != nil {
		return nil, fmt.Errorf("decode raw rows: %w", err)
	}
	summary, err := dataset.ParseSummary()
	if err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummarySheet(f, dataset, summary); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Data"); err != nil {
		return nil, fmt.Errorf("create data sheet: %w", err)
	}
	if err := writeDataSheet(f, rows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, dataset *models.Dataset, summary *models.Summary) error {
	set := func(cell string, value interface{}) error {
		return f.SetCellValue("Summary", cell, value)
	}

	cells := []struct {
		cell  string
		value interface{}
	}{
		{"A1", "Dataset"}, {"B1", dataset.Name},
		{"A2", "Uploaded"}, {"B2", dataset.UploadedAt.Format("2006-01-02 15:04:05")},
		{"A3", "Total valid rows"}, {"B3", summary.TotalCount},
		{"A4", "Dropped rows"}, {"B4", dataset.DroppedCount},
		{"A6", "Metric"}, {"B6", "Flowrate"}, {"C6", "Pressure"}, {"D6", "Temperature"},
	}
	for _, c := range cells {
		if err := set(c.cell, c.value); err != nil {
			return fmt.Errorf("write summary sheet: %w", err)
		}
	}

	metrics := []struct {
		row   int
		label string
		stats *models.ColumnStats
	}{
		{7, "Average", summary.Averages},
		{8, "Minimum", summary.Minimums},
		{9, "Maximum", summary.Maximums},
		{10, "Std Dev", summary.StdDeviations},
	}
	for _, m := range metrics {
		if err := set(fmt.Sprintf("A%d", m.row), m.label); err != nil {
			return fmt.Errorf("write summary sheet: %w", err)
		}
		if m.stats == nil {
			continue
		}
		values := map[string]float64{"B": m.stats.Flowrate, "C": m.stats.Pressure, "D": m.stats.Temperature}
		for col, v := range values {
			if err := set(fmt.Sprintf("%s%d", col, m.row), v); err != nil {
				return fmt.Errorf("write summary sheet: %w", err)
			}
		}
	}

	distRow := 12
	if err := set(fmt.Sprintf("A%d", distRow), "Equipment Type"); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}
	if err := set(fmt.Sprintf("B%d", distRow), "Count"); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}
	for i, category := range sortedCategories(summary.TypeDistribution) {
		row := distRow + 1 + i
		if err := set(fmt.Sprintf("A%d", row), category); err != nil {
			return fmt.Errorf("write summary sheet: %w", err)
		}
		if err := set(fmt.Sprintf("B%d", row), summary.TypeDistribution[category]); err != nil {
			return fmt.Errorf("write summary sheet: %w", err)
		}
	}

	return nil
}

func writeDataSheet(f *excelize.File, rows []models.RawRow) error {
	headers := []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("write data sheet: %w", err)
		}
		if err := f.SetCellValue("Data", cell, h); err != nil {
			return fmt.Errorf("write data sheet: %w", err)
		}
	}

	for r, row := range rows {
		cells := []string{row.EquipmentName, row.Type, row.Flowrate, row.Pressure, row.Temperature}
		for c, value := range cells {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("write data sheet: %w", err)
			}
			if err := f.SetCellValue("Data", cell, value); err != nil {
				return fmt.Errorf("write data sheet: %w", err)
			}
		}
	}
	return nil
}

// sortedCategories fixes presentation order for the report tables; the count
// values themselves are order-independent.
func sortedCategories(distribution map[string]int) []string {
	categories := make([]string, 0, len(distribution))
	for category := range distribution {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
