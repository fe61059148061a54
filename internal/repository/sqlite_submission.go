package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/domain"
)

// SQLiteSubmissionRepo implements SubmissionRepo.
type SQLiteSubmissionRepo struct {
	db db.DBTX
}

// NewSQLiteSubmissionRepo creates a new SQLiteSubmissionRepo.
func NewSQLiteSubmissionRepo(dbtx db.DBTX) *SQLiteSubmissionRepo {
	return &SQLiteSubmissionRepo{db: dbtx}
}

func (r *SQLiteSubmissionRepo) Create(ctx context.Context, s *domain.FormSubmission) error {
	payload := s.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	query := `INSERT INTO form_submissions (id, project_id, phase_key, module_id, payload, submitted_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.ProjectID,
		string(s.PhaseKey),
		s.ModuleID,
		string(payload),
		s.SubmittedBy,
		s.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting form submission: %w", err)
	}
	return nil
}

func (r *SQLiteSubmissionRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.FormSubmission, error) {
	query := `SELECT id, project_id, phase_key, module_id, payload, submitted_by, created_at
		FROM form_submissions WHERE project_id = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing form submissions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.FormSubmission
	for rows.Next() {
		var s domain.FormSubmission
		var phaseStr, payloadStr, createdAtStr string
		if err := rows.Scan(&s.ID, &s.ProjectID, &phaseStr, &s.ModuleID, &payloadStr, &s.SubmittedBy, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning form submission: %w", err)
		}
		s.PhaseKey = domain.PhaseKey(phaseStr)
		s.Payload = json.RawMessage(payloadStr)
		if s.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("parsing submission created_at: %w", err)
		}
		subs = append(subs, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating form submissions: %w", err)
	}
	return subs, nil
}
