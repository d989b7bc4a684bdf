package repository

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"equipviz/internal/models"
)

// DatasetRepository handles database operations for persisted uploads.
type DatasetRepository interface {
	Create(dataset *models.Dataset) error
	GetByID(id uuid.UUID) (*models.Dataset, error)
	GetLatest() (*models.Dataset, error)
	ListRecent(limit int) ([]*models.Dataset, error)
	Delete(id uuid.UUID) (bool, error)
}

type datasetRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewDatasetRepository(db *sqlx.DB, log *zap.Logger) DatasetRepository {
	return &datasetRepository{db: db, log: log}
}

// Create persists a dataset together with its precomputed summary in one
// statement, so a dataset is never observable without its aggregate.
func (r *datasetRepository) Create(dataset *models.Dataset) error {
	query := `
		INSERT INTO datasets (id, name, uploaded_by, record_count, dropped_count, raw_data, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING uploaded_at
	`
	return r.db.QueryRowx(
		query,
		dataset.ID,
		dataset.Name,
		dataset.UploadedBy,
		dataset.RecordCount,
		dataset.DroppedCount,
		dataset.RawData,
		dataset.SummaryJSON,
	).Scan(&dataset.UploadedAt)
}

func (r *datasetRepository) GetByID(id uuid.UUID) (*models.Dataset, error) {
	var dataset models.Dataset
	query := `
		SELECT id, name, uploaded_at, uploaded_by, record_count, dropped_count, raw_data, summary
		FROM datasets WHERE id = $1
	`
	if err := r.db.Get(&dataset, query, id); err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (r *datasetRepository) GetLatest() (*models.Dataset, error) {
	var dataset models.Dataset
	query := `
		SELECT id, name, uploaded_at, uploaded_by, record_count, dropped_count, raw_data, summary
		FROM datasets ORDER BY uploaded_at DESC, id DESC LIMIT 1
	`
	if err := r.db.Get(&dataset, query); err != nil {
		return nil, err
	}
	return &dataset, nil
}

// ListRecent returns the newest datasets first. Older datasets stay in the
// table and remain fetchable by id; they only fall out of this listing.
func (r *datasetRepository) ListRecent(limit int) ([]*models.Dataset, error) {
	datasets := []*models.Dataset{}
	query := `
		SELECT id, name, uploaded_at, uploaded_by, record_count, dropped_count, raw_data, summary
		FROM datasets ORDER BY uploaded_at DESC, id DESC LIMIT $1
	`
	if err := r.db.Select(&datasets, query, limit); err != nil {
		return nil, err
	}
	return datasets, nil
}

func (r *datasetRepository) Delete(id uuid.UUID) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
