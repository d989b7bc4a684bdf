package csvdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"equipviz/internal/models"
)

var (
	ErrEmptyFile      = errors.New("csv file contains no header row")
	ErrMissingColumns = errors.New("csv file is missing required columns")
)

// Columns expected in the upload, in the canonical order they are served back.
var requiredColumns = []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"}

// Result carries both views of one parsed upload: every data row as written
// (for display) and the subset that passed normalization (for aggregation).
// The two diverge whenever malformed rows exist.
type Result struct {
	Rows    []models.RawRow
	Valid   []models.EquipmentRecord
	Dropped int
}

// Parse reads CSV text, validates the header and normalizes each data row.
// Rows failing normalization are dropped from Valid but kept in Rows.
// Structural CSV errors and missing columns fail the whole parse.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	colIndex, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		raw := rawRow(record, colIndex)
		result.Rows = append(result.Rows, raw)

		valid, ok := normalize(raw)
		if !ok {
			result.Dropped++
			continue
		}
		result.Valid = append(result.Valid, valid)
	}

	return result, nil
}

// mapColumns resolves the position of each required column. Matching is
// tolerant of case and internal spacing ("equipment name" == "EquipmentName").
func mapColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, cell := range header {
		positions[foldColumn(cell)] = i
	}

	colIndex := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, col := range requiredColumns {
		idx, ok := positions[foldColumn(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		colIndex[col] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return colIndex, nil
}

func foldColumn(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

func rawRow(record []string, colIndex map[string]int) models.RawRow {
	field := func(col string) string {
		idx := colIndex[col]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	return models.RawRow{
		EquipmentName: field("Equipment Name"),
		Type:          field("Type"),
		Flowrate:      field("Flowrate"),
		Pressure:      field("Pressure"),
		Temperature:   field("Temperature"),
	}
}

// normalize coerces a raw row into an EquipmentRecord. A row is invalid when
// its name is empty or any measurement fails to parse as a finite number.
func normalize(raw models.RawRow) (models.EquipmentRecord, bool) {
	if raw.EquipmentName == "" {
		return models.EquipmentRecord{}, false
	}

	flowrate, ok := parseMeasurement(raw.Flowrate)
	if !ok {
		return models.EquipmentRecord{}, false
	}
	pressure, ok := parseMeasurement(raw.Pressure)
	if !ok {
		return models.EquipmentRecord{}, false
	}
	temperature, ok := parseMeasurement(raw.Temperature)
	if !ok {
		return models.EquipmentRecord{}, false
	}

	return models.EquipmentRecord{
		Name:        raw.EquipmentName,
		Type:        raw.Type,
		Flowrate:    flowrate,
		Pressure:    pressure,
		Temperature: temperature,
	}, true
}

func parseMeasurement(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
