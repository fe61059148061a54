package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/domain"
)

// SQLitePaymentEventRepo implements PaymentEventRepo.
type SQLitePaymentEventRepo struct {
	db db.DBTX
}

// NewSQLitePaymentEventRepo creates a new SQLitePaymentEventRepo.
func NewSQLitePaymentEventRepo(dbtx db.DBTX) *SQLitePaymentEventRepo {
	return &SQLitePaymentEventRepo{db: dbtx}
}

// MarkProcessed records the event in the ledger. Returns false when the
// event id was already present, so webhook redeliveries short-circuit
// inside the same transaction that would otherwise process them.
func (r *SQLitePaymentEventRepo) MarkProcessed(ctx context.Context, e *domain.ProcessedPaymentEvent) (bool, error) {
	query := `INSERT INTO payment_events (event_id, project_id, event_type, processed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		e.EventID,
		e.ProjectID,
		e.EventType,
		e.ProcessedAt.Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("recording payment event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking payment event insert: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLitePaymentEventRepo) WasProcessed(ctx context.Context, eventID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM payment_events WHERE event_id = ?`, eventID,
	).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("checking payment event: %w", err)
	}
	return true, nil
}
