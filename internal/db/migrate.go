package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/calliope-studio/portal/internal/domain"
)

// Migrate runs all schema migrations and seeds the requirement catalog.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := seedRequirementCatalog(db); err != nil {
		return fmt.Errorf("seeding requirement catalog: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		client_name TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'active'
		            CHECK(status IN ('active','archived')),
		archived_at TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS project_phases (
		project_id       TEXT PRIMARY KEY REFERENCES projects(id) ON DELETE CASCADE,
		phase_key        TEXT NOT NULL
		                 CHECK(phase_key IN ('ONB','IDEA','DSGN','REV','PROD','PAY','SIGN','LAUNCH')),
		progress_percent INTEGER NOT NULL DEFAULT 0
		                 CHECK(progress_percent BETWEEN 0 AND 100),
		entered_at       TEXT NOT NULL,
		completed_at     TEXT,
		updated_at       TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS phase_requirements (
		id               TEXT PRIMARY KEY,
		phase_key        TEXT NOT NULL
		                 CHECK(phase_key IN ('ONB','IDEA','DSGN','REV','PROD','PAY','SIGN','LAUNCH')),
		requirement_text TEXT NOT NULL,
		is_mandatory     INTEGER NOT NULL DEFAULT 0,
		requirement_type TEXT NOT NULL
		                 CHECK(requirement_type IN ('form','document','payment','approval',
		                       'review','confirm','monitor','download','feedback','launch')),
		module_id        TEXT NOT NULL DEFAULT '',
		display_order    INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_phase_requirements_phase ON phase_requirements(phase_key)`,

	`CREATE TABLE IF NOT EXISTS project_phase_requirement_completions (
		project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		requirement_id TEXT NOT NULL REFERENCES phase_requirements(id),
		completed      INTEGER NOT NULL DEFAULT 0,
		completed_by   TEXT,
		completed_at   TEXT,
		updated_at     TEXT NOT NULL,
		PRIMARY KEY (project_id, requirement_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_completions_project ON project_phase_requirement_completions(project_id)`,

	`CREATE TABLE IF NOT EXISTS form_submissions (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		phase_key    TEXT NOT NULL,
		module_id    TEXT NOT NULL,
		payload      TEXT NOT NULL DEFAULT '{}',
		submitted_by TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_form_submissions_project ON form_submissions(project_id)`,

	`CREATE TABLE IF NOT EXISTS payment_events (
		event_id     TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL,
		event_type   TEXT NOT NULL,
		processed_at TEXT NOT NULL
	)`,
}

// seedRequirementCatalog mirrors the static in-code catalog into
// phase_requirements. INSERT OR IGNORE keeps re-runs idempotent; the update
// pass keeps previously seeded rows aligned with the catalog text.
func seedRequirementCatalog(db *sql.DB) error {
	for _, r := range domain.Requirements() {
		mandatory := 0
		if r.Mandatory {
			mandatory = 1
		}
		if _, err := db.Exec(
			`INSERT INTO phase_requirements (id, phase_key, requirement_text, is_mandatory, requirement_type, module_id, display_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				phase_key = excluded.phase_key,
				requirement_text = excluded.requirement_text,
				is_mandatory = excluded.is_mandatory,
				requirement_type = excluded.requirement_type,
				module_id = excluded.module_id,
				display_order = excluded.display_order`,
			r.ID, string(r.PhaseKey), r.Text, mandatory, string(r.Kind), r.ModuleID, r.DisplayOrder,
		); err != nil {
			return fmt.Errorf("seeding requirement %s: %w", r.ID, err)
		}
	}
	return nil
}
