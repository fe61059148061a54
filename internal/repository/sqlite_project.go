package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/domain"
)

// SQLiteProjectRepo implements ProjectRepo against a DBTX, so the same code
// runs standalone or inside a trigger transaction.
type SQLiteProjectRepo struct {
	db db.DBTX
}

// NewSQLiteProjectRepo creates a new SQLiteProjectRepo.
func NewSQLiteProjectRepo(dbtx db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: dbtx}
}

func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	query := `INSERT INTO projects (id, name, client_name, status, archived_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.ClientName,
		string(p.Status),
		nullableTimeToString(p.ArchivedAt),
		p.CreatedAt.Format(time.RFC3339),
		p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT id, name, client_name, status, archived_at, created_at, updated_at
		FROM projects WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanProject(row)
}

func (r *SQLiteProjectRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	query := `SELECT id, name, client_name, status, archived_at, created_at, updated_at
		FROM projects WHERE archived_at IS NULL ORDER BY created_at`
	if includeArchived {
		query = `SELECT id, name, client_name, status, archived_at, created_at, updated_at
			FROM projects ORDER BY created_at`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProjectFromRows(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepo) Archive(ctx context.Context, id string) error {
	now := nowUTC()
	query := `UPDATE projects SET status = 'archived', archived_at = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return fmt.Errorf("archiving project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) Unarchive(ctx context.Context, id string) error {
	query := `UPDATE projects SET status = 'active', archived_at = NULL, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("unarchiving project: %w", err)
	}
	return nil
}

func scanProject(row *sql.Row) (*domain.Project, error) {
	var p domain.Project
	var statusStr, createdAtStr, updatedAtStr string
	var archivedAtStr sql.NullString

	err := row.Scan(&p.ID, &p.Name, &p.ClientName, &statusStr, &archivedAtStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("project: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	return hydrateProject(&p, statusStr, archivedAtStr, createdAtStr, updatedAtStr)
}

func scanProjectFromRows(rows *sql.Rows) (*domain.Project, error) {
	var p domain.Project
	var statusStr, createdAtStr, updatedAtStr string
	var archivedAtStr sql.NullString

	if err := rows.Scan(&p.ID, &p.Name, &p.ClientName, &statusStr, &archivedAtStr, &createdAtStr, &updatedAtStr); err != nil {
		return nil, fmt.Errorf("scanning project row: %w", err)
	}
	return hydrateProject(&p, statusStr, archivedAtStr, createdAtStr, updatedAtStr)
}

func hydrateProject(p *domain.Project, status string, archivedAt sql.NullString, createdAt, updatedAt string) (*domain.Project, error) {
	p.Status = domain.ProjectStatus(status)
	p.ArchivedAt = parseNullableTime(archivedAt)

	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return p, nil
}
