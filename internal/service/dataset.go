package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"equipviz/internal/csvdata"
	"equipviz/internal/models"
	"equipviz/internal/repository"
	"equipviz/internal/stats"
)

var (
	ErrInvalidCSV      = errors.New("invalid csv file")
	ErrNotCSV          = errors.New("file must have a .csv extension")
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrNoDatasets      = errors.New("no datasets uploaded yet")
)

// HistoryLimit is the number of datasets the history listing returns.
const HistoryLimit = 5

type DatasetService interface {
	Upload(fileName string, content io.Reader, uploadedBy string) (*models.Dataset, error)
	Get(id uuid.UUID) (*models.Dataset, error)
	Latest() (*models.Dataset, error)
	History() ([]*models.Dataset, error)
	Delete(id uuid.UUID) error
}

type datasetService struct {
	repo   repository.DatasetRepository
	logger *zap.Logger
}

func NewDatasetService(repo repository.DatasetRepository, logger *zap.Logger) DatasetService {
	return &datasetService{repo: repo, logger: logger}
}

// Upload runs the full pipeline for one CSV: parse and normalize the rows,
// compute the summary, and persist everything as one atomic dataset. Rows
// failing normalization are excluded from the summary but kept in the stored
// raw list; an upload whose valid set is empty still succeeds with a null
// summary.
func (s *datasetService) Upload(fileName string, content io.Reader, uploadedBy string) (*models.Dataset, error) {
	if !strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return nil, ErrNotCSV
	}

	parsed, err := csvdata.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCSV, err)
	}

	summary := stats.Summarize(parsed.Valid)

	rawJSON, err := json.Marshal(parsed.Rows)
	if err != nil {
		return nil, fmt.Errorf("encode raw rows: %w", err)
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}

	dataset := &models.Dataset{
		ID:           uuid.New(),
		Name:         fileName,
		RecordCount:  len(parsed.Rows),
		DroppedCount: parsed.Dropped,
		RawData:      string(rawJSON),
		SummaryJSON:  string(summaryJSON),
	}
	if uploadedBy != "" {
		dataset.UploadedBy = sql.NullString{String: uploadedBy, Valid: true}
	}

	if err := s.repo.Create(dataset); err != nil {
		s.logger.Error("Failed to persist dataset", zap.Error(err), zap.String("name", fileName))
		return nil, fmt.Errorf("persist dataset: %w", err)
	}

	s.logger.Info("Dataset uploaded",
		zap.String("id", dataset.ID.String()),
		zap.String("name", dataset.Name),
		zap.Int("rows", dataset.RecordCount),
		zap.Int("dropped", dataset.DroppedCount))

	return dataset, nil
}

func (s *datasetService) Get(id uuid.UUID) (*models.Dataset, error) {
	dataset, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDatasetNotFound
		}
		s.logger.Error("Failed to get dataset", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	return dataset, nil
}

// Latest resolves the most recently uploaded dataset with a storage query;
// there is no in-process "current dataset" state.
func (s *datasetService) Latest() (*models.Dataset, error) {
	dataset, err := s.repo.GetLatest()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDatasets
		}
		s.logger.Error("Failed to get latest dataset", zap.Error(err))
		return nil, fmt.Errorf("get latest dataset: %w", err)
	}
	return dataset, nil
}

func (s *datasetService) History() ([]*models.Dataset, error) {
	datasets, err := s.repo.ListRecent(HistoryLimit)
	if err != nil {
		s.logger.Error("Failed to list recent datasets", zap.Error(err))
		return nil, fmt.Errorf("list recent datasets: %w", err)
	}
	return datasets, nil
}

func (s *datasetService) Delete(id uuid.UUID) error {
	deleted, err := s.repo.Delete(id)
	if err != nil {
		s.logger.Error("Failed to delete dataset", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("delete dataset: %w", err)
	}
	if !deleted {
		return ErrDatasetNotFound
	}
	s.logger.Info("Dataset deleted", zap.String("id", id.String()))
	return nil
}
