package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/domain"
)

// SQLiteRequirementRepo reads the seeded phase_requirements table.
type SQLiteRequirementRepo struct {
	db db.DBTX
}

// NewSQLiteRequirementRepo creates a new SQLiteRequirementRepo.
func NewSQLiteRequirementRepo(dbtx db.DBTX) *SQLiteRequirementRepo {
	return &SQLiteRequirementRepo{db: dbtx}
}

func (r *SQLiteRequirementRepo) ListByPhase(ctx context.Context, key domain.PhaseKey) ([]domain.RequirementDefinition, error) {
	if !domain.ValidPhaseKey(key) {
		return nil, fmt.Errorf("phase %q: %w", key, domain.ErrInvalidPhaseKey)
	}
	query := `SELECT id, phase_key, requirement_text, is_mandatory, requirement_type, module_id, display_order
		FROM phase_requirements WHERE phase_key = ? ORDER BY display_order`
	rows, err := r.db.QueryContext(ctx, query, string(key))
	if err != nil {
		return nil, fmt.Errorf("listing requirements: %w", err)
	}
	defer rows.Close()

	var defs []domain.RequirementDefinition
	for rows.Next() {
		def, err := scanRequirement(rows.Scan)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating requirements: %w", err)
	}
	return defs, nil
}

func (r *SQLiteRequirementRepo) GetByID(ctx context.Context, id string) (domain.RequirementDefinition, error) {
	query := `SELECT id, phase_key, requirement_text, is_mandatory, requirement_type, module_id, display_order
		FROM phase_requirements WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	def, err := scanRequirement(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.RequirementDefinition{}, fmt.Errorf("requirement %q: %w", id, domain.ErrRequirementNotFound)
		}
		return domain.RequirementDefinition{}, err
	}
	return def, nil
}

func scanRequirement(scan func(...any) error) (domain.RequirementDefinition, error) {
	var def domain.RequirementDefinition
	var phaseStr, kindStr string
	var mandatory int

	if err := scan(&def.ID, &phaseStr, &def.Text, &mandatory, &kindStr, &def.ModuleID, &def.DisplayOrder); err != nil {
		return domain.RequirementDefinition{}, err
	}
	def.PhaseKey = domain.PhaseKey(phaseStr)
	def.Kind = domain.RequirementKind(kindStr)
	def.Mandatory = intToBool(mandatory)
	return def, nil
}
