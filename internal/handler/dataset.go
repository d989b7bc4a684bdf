package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"equipviz/internal/models"
	"equipviz/internal/report"
	"equipviz/internal/service"
)

type DatasetHandler interface {
	Upload(c *gin.Context)
	Get(c *gin.Context)
	Latest(c *gin.Context)
	Summary(c *gin.Context)
	History(c *gin.Context)
	Delete(c *gin.Context)
	DownloadPDF(c *gin.Context)
	DownloadXLSX(c *gin.Context)
	DistributionChart(c *gin.Context)
}

type datasetHandler struct {
	datasetService service.DatasetService
	logger         *zap.Logger
}

func NewDatasetHandler(datasetService service.DatasetService, logger *zap.Logger) DatasetHandler {
	return &datasetHandler{datasetService: datasetService, logger: logger}
}

// DatasetResponse is the full wire representation of one dataset: every
// uploaded row (valid or not) plus the summary computed at upload time.
type DatasetResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	UploadedAt    time.Time       `json:"uploaded_at"`
	UploadedBy    string          `json:"uploaded_by_name"`
	RecordCount   int             `json:"record_count"`
	DroppedCount  int             `json:"dropped_count"`
	RawDataParsed []models.RawRow `json:"raw_data_parsed"`
	SummaryParsed *models.Summary `json:"summary_parsed"`
}

// HistoryEntry is the lightweight listing shape: summary only, no raw rows.
type HistoryEntry struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	UploadedAt    time.Time       `json:"uploaded_at"`
	RecordCount   int             `json:"record_count"`
	DroppedCount  int             `json:"dropped_count"`
	SummaryParsed *models.Summary `json:"summary_parsed"`
}

func datasetResponse(dataset *models.Dataset) (*DatasetResponse, error) {
	rows, err := dataset.ParseRawData()
	if err != nil {
		return nil, fmt.Errorf("decode raw rows: %w", err)
	}
	summary, err := dataset.ParseSummary()
	if err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if rows == nil {
		rows = []models.RawRow{}
	}
	return &DatasetResponse{
		ID:            dataset.ID.String(),
		Name:          dataset.Name,
		UploadedAt:    dataset.UploadedAt,
		UploadedBy:    dataset.UploaderName(),
		RecordCount:   dataset.RecordCount,
		DroppedCount:  dataset.DroppedCount,
		RawDataParsed: rows,
		SummaryParsed: summary,
	}, nil
}

// Upload handles POST /api/upload.
func (h *datasetHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided. Please upload a CSV file."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	uploadedBy := c.GetString("username")

	dataset, err := h.datasetService.Upload(fileHeader.Filename, file, uploadedBy)
	if err != nil {
		if errors.Is(err, service.ErrNotCSV) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Please upload a CSV file."})
			return
		}
		if errors.Is(err, service.ErrInvalidCSV) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to process upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing file"})
		return
	}

	resp, err := datasetResponse(dataset)
	if err != nil {
		h.logger.Error("Failed to build dataset response", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to serialize dataset"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "File uploaded and processed successfully",
		"dataset": resp,
	})
}

// Get handles GET /api/datasets/:id.
func (h *datasetHandler) Get(c *gin.Context) {
	dataset, ok := h.lookup(c)
	if !ok {
		return
	}

	resp, err := datasetResponse(dataset)
	if err != nil {
		h.logger.Error("Failed to build dataset response", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to serialize dataset"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Latest handles GET /api/datasets/latest.
func (h *datasetHandler) Latest(c *gin.Context) {
	dataset, err := h.datasetService.Latest()
	if err != nil {
		if errors.Is(err, service.ErrNoDatasets) {
			c.JSON(http.StatusNotFound, gin.H{"message": "No datasets found"})
			return
		}
		h.logger.Error("Failed to get latest dataset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dataset"})
		return
	}

	resp, err := datasetResponse(dataset)
	if err != nil {
		h.logger.Error("Failed to build dataset response", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to serialize dataset"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary handles GET /api/datasets/:id/summary.
func (h *datasetHandler) Summary(c *gin.Context) {
	dataset, ok := h.lookup(c)
	if !ok {
		return
	}

	summary, err := dataset.ParseSummary()
	if err != nil {
		h.logger.Error("Failed to decode summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      dataset.ID.String(),
		"name":    dataset.Name,
		"summary": summary,
	})
}

// History handles GET /api/history: at most the 5 newest datasets, newest
// first, without raw rows.
func (h *datasetHandler) History(c *gin.Context) {
	datasets, err := h.datasetService.History()
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	entries := make([]HistoryEntry, 0, len(datasets))
	for _, dataset := range datasets {
		summary, err := dataset.ParseSummary()
		if err != nil {
			h.logger.Error("Failed to decode summary", zap.Error(err), zap.String("id", dataset.ID.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode summary"})
			return
		}
		entries = append(entries, HistoryEntry{
			ID:            dataset.ID.String(),
			Name:          dataset.Name,
			UploadedAt:    dataset.UploadedAt,
			RecordCount:   dataset.RecordCount,
			DroppedCount:  dataset.DroppedCount,
			SummaryParsed: summary,
		})
	}

	c.JSON(http.StatusOK, entries)
}

// Delete handles DELETE /api/datasets/:id. Permanent, not reversible.
func (h *datasetHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.datasetService.Delete(id); err != nil {
		if errors.Is(err, service.ErrDatasetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
			return
		}
		h.logger.Error("Failed to delete dataset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete dataset"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Dataset deleted successfully"})
}

// DownloadPDF handles GET /api/datasets/:id/pdf. The report renders the
// persisted summary and raw rows as-is; nothing is recomputed here.
func (h *datasetHandler) DownloadPDF(c *gin.Context) {
	dataset, ok := h.lookup(c)
	if !ok {
		return
	}

	buf, err := report.RenderPDF(dataset)
	if err != nil {
		h.logger.Error("Failed to render PDF", zap.Error(err), zap.String("id", dataset.ID.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report_%s.pdf"`, dataset.Name))
	c.Data(http.StatusOK, "application/pdf", buf)
}

// DownloadXLSX handles GET /api/datasets/:id/xlsx.
func (h *datasetHandler) DownloadXLSX(c *gin.Context) {
	dataset, ok := h.lookup(c)
	if !ok {
		return
	}

	buf, err := report.RenderXLSX(dataset)
	if err != nil {
		h.logger.Error("Failed to render XLSX", zap.Error(err), zap.String("id", dataset.ID.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate Excel report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report_%s.xlsx"`, dataset.Name))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf)
}

// DistributionChart handles GET /api/datasets/:id/chart with a PNG bar chart
// of the equipment type distribution.
func (h *datasetHandler) DistributionChart(c *gin.Context) {
	dataset, ok := h.lookup(c)
	if !ok {
		return
	}

	buf, err := report.RenderDistributionChart(dataset)
	if err != nil {
		if errors.Is(err, report.ErrEmptyDistribution) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset has no valid rows to chart"})
			return
		}
		h.logger.Error("Failed to render chart", zap.Error(err), zap.String("id", dataset.ID.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate chart"})
		return
	}

	c.Data(http.StatusOK, "image/png", buf)
}

func (h *datasetHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid dataset id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *datasetHandler) lookup(c *gin.Context) (*models.Dataset, bool) {
	id, ok := h.parseID(c)
	if !ok {
		return nil, false
	}

	dataset, err := h.datasetService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrDatasetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
			return nil, false
		}
		h.logger.Error("Failed to get dataset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dataset"})
		return nil, false
	}
	return dataset, true
}
