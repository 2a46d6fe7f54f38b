package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/podx/internal/models"
)

// HistoryRecorder implements tasks.UploadRecorder and tasks.BulkRecorder on top of the repositories.
type HistoryRecorder struct {
	baseURL string
	runs    *UploadRunRepository
	records *UploadRecordRepository
	bulk    *BulkActionRepository
}

// NewHistoryRecorder records history for uploads sent to baseURL.
func NewHistoryRecorder(db *sql.DB, baseURL string) *HistoryRecorder {
	return &HistoryRecorder{
		baseURL: baseURL,
		runs:    NewUploadRunRepository(db),
		records: NewUploadRecordRepository(db),
		bulk:    NewBulkActionRepository(db),
	}
}

// BeginRun stores a new unfinished run and returns its id.
func (h *HistoryRecorder) BeginRun(total int) (string, error) {
	run := models.NewUploadRun(h.baseURL, total)
	if err := h.runs.Create(run); err != nil {
		return "", fmt.Errorf("failed to begin upload run: %w", err)
	}
	return run.ID(), nil
}

// RecordFile stores the outcome of the file at position.
func (h *HistoryRecorder) RecordFile(runID string, position int, file models.UploadFile, outcome models.Outcome, entry models.UploadEntry) error {
	return h.records.Create(models.NewUploadRecord(runID, position, file, outcome, entry))
}

// FinishRun stamps the run with the final counts of result.
func (h *HistoryRecorder) FinishRun(runID string, result models.UploadResult) error {
	run, err := h.runs.Get(runID)
	if err != nil {
		return err
	}
	run.Finish(result, time.Now())
	return h.runs.Finish(run)
}

// RecordBulk stores a device batch.
func (h *HistoryRecorder) RecordBulk(action *models.BulkAction) error {
	return h.bulk.Create(action)
}

// History is a read view over stored runs and batches.
type History struct {
	Runs    []*models.UploadRun
	Batches []*models.BulkAction
}

// Recent returns the latest limit runs and batches.
func (h *HistoryRecorder) Recent(limit int) (*History, error) {
	runs, err := h.runs.List(map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	batches, err := h.bulk.List(map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	return &History{Runs: runs, Batches: batches}, nil
}

// Records returns the per-file outcomes of a run in queue order.
func (h *HistoryRecorder) Records(runID string) ([]*models.UploadRecord, error) {
	if _, err := h.runs.Get(runID); err != nil {
		return nil, err
	}
	return h.records.List(map[string]any{"run_id": runID})
}

// PreviouslyAdded reports whether filename was added in an earlier run.
func (h *HistoryRecorder) PreviouslyAdded(filename string) (bool, error) {
	records, err := h.records.List(map[string]any{"filename": filename, "outcome": models.OutcomeAdded})
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}
