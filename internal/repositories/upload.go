package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/shared"
)

// UploadRunRepository implements models.Repository[*models.UploadRun] for upload history.
//
// Runs are soft deleted; their records stay until the run row itself is purged.
type UploadRunRepository struct {
	db *sql.DB
}

// NewUploadRunRepository creates a new UploadRunRepository with the given database connection
func NewUploadRunRepository(db *sql.DB) *UploadRunRepository {
	return &UploadRunRepository{db: db}
}

// Create inserts a new run with generated ID and sequence
func (r *UploadRunRepository) Create(run *models.UploadRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "upload_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO upload_runs (id, sequence, base_url, total, added, duplicates, errors, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.BaseURL(),
		run.Total(),
		run.Added(),
		run.Duplicates(),
		run.Errors(),
		run.CreatedAt(),
		nullTime(run.FinishedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Finish stores the final counts and finish time of run.
func (r *UploadRunRepository) Finish(run *models.UploadRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE upload_runs
		SET added = ?, duplicates = ?, errors = ?, finished_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, run.Added(), run.Duplicates(), run.Errors(), nullTime(run.FinishedAt()), run.ID())
	if err != nil {
		return fmt.Errorf("failed to update upload run: %w", err)
	}
	return requireRow(result, "upload run", run.ID())
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *UploadRunRepository) Get(id string) (*models.UploadRun, error) {
	query := `
		SELECT id, sequence, base_url, total, added, duplicates, errors, started_at, finished_at
		FROM upload_runs
		WHERE id = ? AND deleted_at IS NULL
	`

	run, err := scanUploadRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: upload run %s", shared.ErrRecordNotFound, id)
	}
	return run, err
}

// Delete soft-deletes a run by ID
func (r *UploadRunRepository) Delete(id string) error {
	query := `
		UPDATE upload_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete upload run: %w", err)
	}
	return requireRow(result, "upload run", id)
}

// List returns runs newest first. Criteria: "limit" (int), "finished" (bool).
func (r *UploadRunRepository) List(criteria map[string]any) ([]*models.UploadRun, error) {
	query := `
		SELECT id, sequence, base_url, total, added, duplicates, errors, started_at, finished_at
		FROM upload_runs
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if finished, ok := criteria["finished"].(bool); ok {
		if finished {
			query += " AND finished_at IS NOT NULL"
		} else {
			query += " AND finished_at IS NULL"
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.UploadRun
	for rows.Next() {
		run, err := scanUploadRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// UploadRecordRepository implements models.Repository[*models.UploadRecord] for per-file outcomes.
type UploadRecordRepository struct {
	db *sql.DB
}

// NewUploadRecordRepository creates a new UploadRecordRepository with the given database connection
func NewUploadRecordRepository(db *sql.DB) *UploadRecordRepository {
	return &UploadRecordRepository{db: db}
}

// Create inserts a record with a generated ID
func (r *UploadRecordRepository) Create(record *models.UploadRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	file, entry := record.File(), record.Entry()

	query := `
		INSERT INTO upload_records (id, run_id, position, filename, size, outcome, artist, title, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		id,
		record.RunID(),
		record.Position(),
		file.Name,
		file.Size,
		string(record.Outcome()),
		entry.Artist,
		entry.Title,
		entry.Reason,
		record.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload record: %w", err)
	}

	record.SetID(id)
	return nil
}

// Get retrieves a record by ID
func (r *UploadRecordRepository) Get(id string) (*models.UploadRecord, error) {
	query := `
		SELECT id, run_id, position, filename, size, outcome, artist, title, reason, created_at
		FROM upload_records
		WHERE id = ?
	`

	record, err := scanUploadRecord(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: upload record %s", shared.ErrRecordNotFound, id)
	}
	return record, err
}

// Delete removes a record by ID
func (r *UploadRecordRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM upload_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete upload record: %w", err)
	}
	return requireRow(result, "upload record", id)
}

// List returns records in queue order. Criteria: "run_id" (string), "outcome" (models.Outcome), "filename" (string).
func (r *UploadRecordRepository) List(criteria map[string]any) ([]*models.UploadRecord, error) {
	query := `
		SELECT id, run_id, position, filename, size, outcome, artist, title, reason, created_at
		FROM upload_records
		WHERE 1 = 1
	`

	args := []any{}

	if runID, ok := criteria["run_id"].(string); ok && runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}

	if outcome, ok := criteria["outcome"].(models.Outcome); ok && outcome != "" {
		query += " AND outcome = ?"
		args = append(args, string(outcome))
	}

	if filename, ok := criteria["filename"].(string); ok && filename != "" {
		query += " AND filename = ?"
		args = append(args, filename)
	}

	query += " ORDER BY created_at ASC, position ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload records: %w", err)
	}
	defer rows.Close()

	var records []*models.UploadRecord
	for rows.Next() {
		record, err := scanUploadRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

func scanUploadRun(row scanner) (*models.UploadRun, error) {
	var (
		id         string
		sequence   int
		baseURL    string
		total      int
		added      int
		duplicates int
		errs       int
		startedAt  time.Time
		finishedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &baseURL, &total, &added, &duplicates, &errs, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan upload run: %w", err)
	}

	var finished *time.Time
	if finishedAt.Valid {
		finished = &finishedAt.Time
	}

	return models.RestoreUploadRun(id, sequence, baseURL, total, added, duplicates, errs, startedAt, finished), nil
}

func scanUploadRecord(row scanner) (*models.UploadRecord, error) {
	var (
		id        string
		runID     string
		position  int
		filename  string
		size      int64
		outcome   string
		artist    string
		title     string
		reason    string
		createdAt time.Time
	)

	err := row.Scan(&id, &runID, &position, &filename, &size, &outcome, &artist, &title, &reason, &createdAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan upload record: %w", err)
	}

	file := models.UploadFile{Name: filename, Size: size}
	entry := models.UploadEntry{Filename: filename, Artist: artist, Title: title, Reason: reason}
	return models.RestoreUploadRecord(id, runID, position, file, models.Outcome(outcome), entry, createdAt), nil
}
