package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RawRow is one CSV row exactly as uploaded, valid or not. Field values stay
// strings so malformed measurements can still be displayed verbatim.
type RawRow struct {
	EquipmentName string `json:"Equipment Name"`
	Type          string `json:"Type"`
	Flowrate      string `json:"Flowrate"`
	Pressure      string `json:"Pressure"`
	Temperature   string `json:"Temperature"`
}

// EquipmentRecord is a row that survived normalization: non-empty name and
// three finite numeric measurements.
type EquipmentRecord struct {
	Name        string
	Type        string
	Flowrate    float64
	Pressure    float64
	Temperature float64
}

// ColumnStats holds one statistic per numeric column.
type ColumnStats struct {
	Flowrate    float64 `json:"flowrate"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

// Summary is the aggregate computed once at upload time and persisted with
// the dataset. The numeric blocks are nil (JSON null) when no valid rows
// exist.
type Summary struct {
	TotalCount       int            `json:"total_count"`
	Averages         *ColumnStats   `json:"averages"`
	Minimums         *ColumnStats   `json:"minimums"`
	Maximums         *ColumnStats   `json:"maximums"`
	StdDeviations    *ColumnStats   `json:"std_deviations"`
	TypeDistribution map[string]int `json:"type_distribution"`
}

// Dataset is one persisted upload. RawData and SummaryJSON are stored as JSON
// text columns; RecordCount counts all uploaded rows, DroppedCount the ones
// that failed normalization.
type Dataset struct {
	ID           uuid.UUID      `db:"id"`
	Name         string         `db:"name"`
	UploadedAt   time.Time      `db:"uploaded_at"`
	UploadedBy   sql.NullString `db:"uploaded_by"`
	RecordCount  int            `db:"record_count"`
	DroppedCount int            `db:"dropped_count"`
	RawData      string         `db:"raw_data"`
	SummaryJSON  string         `db:"summary"`
}

// ParseRawData decodes the stored raw row list.
func (d *Dataset) ParseRawData() ([]RawRow, error) {
	var rows []RawRow
	if err := json.Unmarshal([]byte(d.RawData), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ParseSummary decodes the stored summary.
func (d *Dataset) ParseSummary() (*Summary, error) {
	var s Summary
	if err := json.Unmarshal([]byte(d.SummaryJSON), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UploaderName returns the uploader's username, or "Anonymous" for uploads
// made without a token.
func (d *Dataset) UploaderName() string {
	if d.UploadedBy.Valid && d.UploadedBy.String != "" {
		return d.UploadedBy.String
	}
	return "Anonymous"
}
