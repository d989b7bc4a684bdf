package service_test

import (
	"database/sql"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipviz/internal/models"
	"equipviz/internal/service"
)

// fakeDatasetRepo is an in-memory stand-in for the Postgres repository.
type fakeDatasetRepo struct {
	datasets []*models.Dataset
	clock    time.Time
}

func newFakeDatasetRepo() *fakeDatasetRepo {
	return &fakeDatasetRepo{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeDatasetRepo) Create(dataset *models.Dataset) error {
	f.clock = f.clock.Add(time.Second)
	dataset.UploadedAt = f.clock
	f.datasets = append(f.datasets, dataset)
	return nil
}

func (f *fakeDatasetRepo) GetByID(id uuid.UUID) (*models.Dataset, error) {
	for _, d := range f.datasets {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDatasetRepo) GetLatest() (*models.Dataset, error) {
	recent, err := f.ListRecent(1)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, sql.ErrNoRows
	}
	return recent[0], nil
}

func (f *fakeDatasetRepo) ListRecent(limit int) ([]*models.Dataset, error) {
	sorted := make([]*models.Dataset, len(f.datasets))
	copy(sorted, f.datasets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].UploadedAt.After(sorted[j].UploadedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (f *fakeDatasetRepo) Delete(id uuid.UUID) (bool, error) {
	for i, d := range f.datasets {
		if d.ID == id {
			f.datasets = append(f.datasets[:i], f.datasets[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newDatasetService(t *testing.T) (service.DatasetService, *fakeDatasetRepo) {
	t.Helper()
	repo := newFakeDatasetRepo()
	return service.NewDatasetService(repo, zap.NewNop()), repo
}

const uploadCSV = `Equipment Name,Type,Flowrate,Pressure,Temperature
Pump1,Pump,10,100,50
Pump2,Pump,20,200,60
Valve1,Valve,30,300,70
`

func TestUploadPersistsDatasetWithSummary(t *testing.T) {
	svc, repo := newDatasetService(t)

	dataset, err := svc.Upload("plant.csv", strings.NewReader(uploadCSV), "operator")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, dataset.ID)
	assert.Equal(t, "plant.csv", dataset.Name)
	assert.Equal(t, 3, dataset.RecordCount)
	assert.Equal(t, 0, dataset.DroppedCount)
	assert.Equal(t, "operator", dataset.UploaderName())
	require.Len(t, repo.datasets, 1)

	summary, err := dataset.ParseSummary()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalCount)
	assert.Equal(t, 20.0, summary.Averages.Flowrate)
	assert.Equal(t, 8.16, summary.StdDeviations.Flowrate)

	rows, err := dataset.ParseRawData()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestUploadAnonymous(t *testing.T) {
	svc, _ := newDatasetService(t)

	dataset, err := svc.Upload("plant.csv", strings.NewReader(uploadCSV), "")
	require.NoError(t, err)
	assert.False(t, dataset.UploadedBy.Valid)
	assert.Equal(t, "Anonymous", dataset.UploaderName())
}

func TestUploadRejectsNonCSVExtension(t *testing.T) {
	svc, repo := newDatasetService(t)

	_, err := svc.Upload("plant.txt", strings.NewReader(uploadCSV), "")
	assert.ErrorIs(t, err, service.ErrNotCSV)
	assert.Empty(t, repo.datasets)
}

func TestUploadRejectsBadHeader(t *testing.T) {
	svc, repo := newDatasetService(t)

	_, err := svc.Upload("plant.csv", strings.NewReader("Name,Type\nP1,Pump\n"), "")
	assert.ErrorIs(t, err, service.ErrInvalidCSV)
	assert.Empty(t, repo.datasets)
}

func TestUploadWithNoValidRowsStillSucceeds(t *testing.T) {
	svc, _ := newDatasetService(t)

	csv := "Equipment Name,Type,Flowrate,Pressure,Temperature\nP1,Valve,abc,10,20\n"
	dataset, err := svc.Upload("broken.csv", strings.NewReader(csv), "")
	require.NoError(t, err)

	assert.Equal(t, 1, dataset.RecordCount)
	assert.Equal(t, 1, dataset.DroppedCount)

	summary, err := dataset.ParseSummary()
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalCount)
	assert.Nil(t, summary.Averages)
	assert.Nil(t, summary.StdDeviations)
	assert.Empty(t, summary.TypeDistribution)

	rows, err := dataset.ParseRawData()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestHistoryKeepsFiveNewestButOlderStayFetchable(t *testing.T) {
	svc, _ := newDatasetService(t)

	var ids []uuid.UUID
	names := []string{"a.csv", "b.csv", "c.csv", "d.csv", "e.csv", "f.csv"}
	for _, name := range names {
		dataset, err := svc.Upload(name, strings.NewReader(uploadCSV), "")
		require.NoError(t, err)
		ids = append(ids, dataset.ID)
	}

	history, err := svc.History()
	require.NoError(t, err)
	require.Len(t, history, service.HistoryLimit)

	// Newest first; the oldest upload fell off the listing.
	assert.Equal(t, "f.csv", history[0].Name)
	assert.Equal(t, "b.csv", history[4].Name)
	for _, entry := range history {
		assert.NotEqual(t, ids[0], entry.ID)
	}

	// The oldest dataset is still fetchable directly by id.
	oldest, err := svc.Get(ids[0])
	require.NoError(t, err)
	assert.Equal(t, "a.csv", oldest.Name)
}

func TestLatest(t *testing.T) {
	svc, _ := newDatasetService(t)

	_, err := svc.Latest()
	assert.ErrorIs(t, err, service.ErrNoDatasets)

	_, err = svc.Upload("first.csv", strings.NewReader(uploadCSV), "")
	require.NoError(t, err)
	second, err := svc.Upload("second.csv", strings.NewReader(uploadCSV), "")
	require.NoError(t, err)

	latest, err := svc.Latest()
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestDelete(t *testing.T) {
	svc, _ := newDatasetService(t)

	dataset, err := svc.Upload("plant.csv", strings.NewReader(uploadCSV), "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(dataset.ID))

	_, err = svc.Get(dataset.ID)
	assert.ErrorIs(t, err, service.ErrDatasetNotFound)

	err = svc.Delete(dataset.ID)
	assert.ErrorIs(t, err, service.ErrDatasetNotFound)
}

func TestGetUnknownID(t *testing.T) {
	svc, _ := newDatasetService(t)

	_, err := svc.Get(uuid.New())
	assert.ErrorIs(t, err, service.ErrDatasetNotFound)
}
