package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/domain"
)

// SQLiteCompletionRepo implements CompletionRepo.
type SQLiteCompletionRepo struct {
	db db.DBTX
}

// NewSQLiteCompletionRepo creates a new SQLiteCompletionRepo.
func NewSQLiteCompletionRepo(dbtx db.DBTX) *SQLiteCompletionRepo {
	return &SQLiteCompletionRepo{db: dbtx}
}

// Upsert writes a completion record with last-writer-wins semantics. The
// conflict clause keeps the write linearizable: no application-level
// read-modify-write is involved.
func (r *SQLiteCompletionRepo) Upsert(ctx context.Context, c *domain.RequirementCompletion) error {
	query := `INSERT INTO project_phase_requirement_completions
			(project_id, requirement_id, completed, completed_by, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, requirement_id) DO UPDATE SET
			completed = excluded.completed,
			completed_by = excluded.completed_by,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		c.ProjectID,
		c.RequirementID,
		boolToInt(c.Completed),
		nullableString(c.CompletedBy),
		nullableTimeToString(c.CompletedAt),
		c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting completion: %w", err)
	}
	return nil
}

func (r *SQLiteCompletionRepo) Get(ctx context.Context, projectID, requirementID string) (*domain.RequirementCompletion, error) {
	query := `SELECT project_id, requirement_id, completed, completed_by, completed_at, updated_at
		FROM project_phase_requirement_completions
		WHERE project_id = ? AND requirement_id = ?`
	row := r.db.QueryRowContext(ctx, query, projectID, requirementID)

	c, err := scanCompletion(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("completion: %w", ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (r *SQLiteCompletionRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.RequirementCompletion, error) {
	query := `SELECT project_id, requirement_id, completed, completed_by, completed_at, updated_at
		FROM project_phase_requirement_completions
		WHERE project_id = ? ORDER BY requirement_id`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing completions: %w", err)
	}
	defer rows.Close()

	var completions []*domain.RequirementCompletion
	for rows.Next() {
		c, err := scanCompletion(rows.Scan)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating completions: %w", err)
	}
	return completions, nil
}

// IsSatisfied treats a missing row as "not completed".
func (r *SQLiteCompletionRepo) IsSatisfied(ctx context.Context, projectID, requirementID string) (bool, error) {
	query := `SELECT completed FROM project_phase_requirement_completions
		WHERE project_id = ? AND requirement_id = ?`
	var completed int
	err := r.db.QueryRowContext(ctx, query, projectID, requirementID).Scan(&completed)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("checking completion: %w", err)
	}
	return intToBool(completed), nil
}

func scanCompletion(scan func(...any) error) (*domain.RequirementCompletion, error) {
	var c domain.RequirementCompletion
	var completed int
	var completedBy, completedAtStr sql.NullString
	var updatedAtStr string

	if err := scan(&c.ProjectID, &c.RequirementID, &completed, &completedBy, &completedAtStr, &updatedAtStr); err != nil {
		return nil, err
	}

	c.Completed = intToBool(completed)
	if completedBy.Valid {
		by := completedBy.String
		c.CompletedBy = &by
	}
	c.CompletedAt = parseNullableTime(completedAtStr)

	var err error
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing completion updated_at: %w", err)
	}
	return &c, nil
}
