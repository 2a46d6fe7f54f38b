package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/podx/internal/models"
	"github.com/desertthunder/podx/internal/shared"
)

// BulkActionRepository implements models.Repository[*models.BulkAction] for the batch log.
type BulkActionRepository struct {
	db *sql.DB
}

// NewBulkActionRepository creates a new BulkActionRepository with the given database connection
func NewBulkActionRepository(db *sql.DB) *BulkActionRepository {
	return &BulkActionRepository{db: db}
}

// Create inserts a batch with a generated ID
func (r *BulkActionRepository) Create(action *models.BulkAction) error {
	if err := action.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	result := action.Result()

	query := `
		INSERT INTO bulk_actions (id, action, playlist_id, requested, added, duplicates, errors, failure, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		id,
		string(action.Kind()),
		action.PlaylistID(),
		action.Requested(),
		result.Added+result.Removed,
		result.Duplicates,
		result.Errors,
		action.Failure(),
		action.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bulk action: %w", err)
	}

	action.SetID(id)
	return nil
}

// Get retrieves a batch by ID
func (r *BulkActionRepository) Get(id string) (*models.BulkAction, error) {
	query := `
		SELECT id, action, playlist_id, requested, added, duplicates, errors, failure, created_at
		FROM bulk_actions
		WHERE id = ?
	`

	action, err := scanBulkAction(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: bulk action %s", shared.ErrRecordNotFound, id)
	}
	return action, err
}

// Delete removes a batch by ID
func (r *BulkActionRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM bulk_actions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete bulk action: %w", err)
	}
	return requireRow(result, "bulk action", id)
}

// List returns batches newest first. Criteria: "action" (models.BulkKind), "failed" (bool), "limit" (int).
func (r *BulkActionRepository) List(criteria map[string]any) ([]*models.BulkAction, error) {
	query := `
		SELECT id, action, playlist_id, requested, added, duplicates, errors, failure, created_at
		FROM bulk_actions
		WHERE 1 = 1
	`

	args := []any{}

	if kind, ok := criteria["action"].(models.BulkKind); ok && kind != "" {
		query += " AND action = ?"
		args = append(args, string(kind))
	}

	if failed, ok := criteria["failed"].(bool); ok {
		if failed {
			query += " AND failure != ''"
		} else {
			query += " AND failure = ''"
		}
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bulk actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.BulkAction
	for rows.Next() {
		action, err := scanBulkAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return actions, nil
}

func scanBulkAction(row scanner) (*models.BulkAction, error) {
	var (
		id         string
		kind       string
		playlistID string
		requested  int
		added      int
		duplicates int
		errs       int
		failure    string
		createdAt  time.Time
	)

	err := row.Scan(&id, &kind, &playlistID, &requested, &added, &duplicates, &errs, &failure, &createdAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bulk action: %w", err)
	}

	result := models.BulkResult{Duplicates: duplicates, Errors: errs}
	if models.BulkKind(kind) == models.BulkRemove {
		result.Removed = added
	} else {
		result.Added = added
	}

	return models.RestoreBulkAction(id, models.BulkKind(kind), playlistID, requested, result, failure, createdAt), nil
}
