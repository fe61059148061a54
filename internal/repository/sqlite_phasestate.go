package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/domain"
)

// SQLitePhaseStateRepo implements PhaseStateRepo.
type SQLitePhaseStateRepo struct {
	db db.DBTX
}

// NewSQLitePhaseStateRepo creates a new SQLitePhaseStateRepo.
func NewSQLitePhaseStateRepo(dbtx db.DBTX) *SQLitePhaseStateRepo {
	return &SQLitePhaseStateRepo{db: dbtx}
}

func (r *SQLitePhaseStateRepo) Create(ctx context.Context, s *domain.ProjectPhaseState) error {
	query := `INSERT INTO project_phases (project_id, phase_key, progress_percent, entered_at, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ProjectID,
		string(s.CurrentPhase),
		s.ProgressPercent,
		s.EnteredAt.Format(time.RFC3339),
		nullableTimeToString(s.CompletedAt),
		s.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting phase state: %w", err)
	}
	return nil
}

func (r *SQLitePhaseStateRepo) GetByProject(ctx context.Context, projectID string) (*domain.ProjectPhaseState, error) {
	query := `SELECT project_id, phase_key, progress_percent, entered_at, completed_at, updated_at
		FROM project_phases WHERE project_id = ?`
	row := r.db.QueryRowContext(ctx, query, projectID)

	var s domain.ProjectPhaseState
	var phaseStr, enteredAtStr, updatedAtStr string
	var completedAtStr sql.NullString

	err := row.Scan(&s.ProjectID, &phaseStr, &s.ProgressPercent, &enteredAtStr, &completedAtStr, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("phase state: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning phase state: %w", err)
	}

	s.CurrentPhase = domain.PhaseKey(phaseStr)
	s.CompletedAt = parseNullableTime(completedAtStr)
	if s.EnteredAt, err = time.Parse(time.RFC3339, enteredAtStr); err != nil {
		return nil, fmt.Errorf("parsing entered_at: %w", err)
	}
	if s.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &s, nil
}

func (r *SQLitePhaseStateRepo) Update(ctx context.Context, s *domain.ProjectPhaseState) error {
	query := `UPDATE project_phases
		SET phase_key = ?, progress_percent = ?, entered_at = ?, completed_at = ?, updated_at = ?
		WHERE project_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(s.CurrentPhase),
		s.ProgressPercent,
		s.EnteredAt.Format(time.RFC3339),
		nullableTimeToString(s.CompletedAt),
		s.UpdatedAt.Format(time.RFC3339),
		s.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("updating phase state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking phase state update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("phase state: %w", ErrNotFound)
	}
	return nil
}
