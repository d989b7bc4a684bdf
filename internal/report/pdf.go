package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"equipviz/internal/models"
)

// RenderPDF builds the downloadable report for one dataset: header, summary
// statistics table, equipment type distribution and the full raw data table.
// All numbers come straight from the persisted summary; nothing is recomputed
// or re-rounded here.
func RenderPDF(dataset *models.Dataset) ([]byte, error) {
	rows, err := dataset.ParseRawData()
	if err != nil {
		return nil, fmt.Errorf("decode raw rows: %w", err)
	}
	summary, err := dataset.ParseSummary()
	if err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Chemical Equipment Parameter Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Chemical Equipment Parameter Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Dataset: %s", dataset.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", dataset.UploadedAt.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	writeSectionTitle(pdf, "Summary Statistics")
	writeSummaryTable(pdf, summary)
	pdf.Ln(6)

	writeSectionTitle(pdf, "Equipment Type Distribution")
	writeDistributionTable(pdf, summary)
	pdf.Ln(6)

	writeSectionTitle(pdf, "Equipment Data")
	writeDataTable(pdf, rows)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func writeSummaryTable(pdf *gofpdf.Fpdf, summary *models.Summary) {
	headers := []string{"Metric", "Flowrate", "Pressure", "Temperature"}
	widths := []float64{40, 35, 35, 35}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(52, 152, 219)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetFillColor(236, 240, 241)
	pdf.SetTextColor(0, 0, 0)

	metrics := []struct {
		label string
		stats *models.ColumnStats
	}{
		{"Average", summary.Averages},
		{"Minimum", summary.Minimums},
		{"Maximum", summary.Maximums},
		{"Std Dev", summary.StdDeviations},
	}
	for _, m := range metrics {
		pdf.CellFormat(widths[0], 8, m.label, "1", 0, "C", true, 0, "")
		if m.stats == nil {
			for i := 1; i < 4; i++ {
				pdf.CellFormat(widths[i], 8, "-", "1", 0, "C", true, 0, "")
			}
		} else {
			pdf.CellFormat(widths[1], 8, formatStat(m.stats.Flowrate), "1", 0, "C", true, 0, "")
			pdf.CellFormat(widths[2], 8, formatStat(m.stats.Pressure), "1", 0, "C", true, 0, "")
			pdf.CellFormat(widths[3], 8, formatStat(m.stats.Temperature), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeDistributionTable(pdf *gofpdf.Fpdf, summary *models.Summary) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(39, 174, 96)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(50, 8, "Equipment Type", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Count", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetFillColor(232, 246, 243)
	pdf.SetTextColor(0, 0, 0)
	for _, category := range sortedCategories(summary.TypeDistribution) {
		pdf.CellFormat(50, 8, category, "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 8, strconv.Itoa(summary.TypeDistribution[category]), "1", 1, "C", true, 0, "")
	}
	pdf.CellFormat(50, 8, "Total", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 8, strconv.Itoa(summary.TotalCount), "1", 1, "C", false, 0, "")
}

func writeDataTable(pdf *gofpdf.Fpdf, rows []models.RawRow) {
	headers := []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"}
	widths := []float64{45, 35, 25, 25, 30}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(155, 89, 182)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetFillColor(245, 238, 248)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range rows {
		cells := []string{row.EquipmentName, row.Type, row.Flowrate, row.Pressure, row.Temperature}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 7, cell, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

// formatStat prints an already-rounded statistic without altering it.
func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
