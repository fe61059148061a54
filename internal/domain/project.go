package domain

import "time"

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// Project is a studio engagement. Each project owns exactly one
// ProjectPhaseState for its lifetime.
type Project struct {
	ID         string
	Name       string
	ClientName string
	Status     ProjectStatus
	ArchivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProjectPhaseState records which phase a project occupies. Invariants:
// CurrentPhase is always one of the eight valid keys, and ProgressPercent is
// monotonically non-decreasing over the project's lifetime.
type ProjectPhaseState struct {
	ProjectID       string
	CurrentPhase    PhaseKey
	ProgressPercent int
	EnteredAt       time.Time
	CompletedAt     *time.Time // set when the terminal phase's work wraps up
	UpdatedAt       time.Time
}

// NewPhaseState returns the state a freshly created project starts in.
func NewPhaseState(projectID string, now time.Time) *ProjectPhaseState {
	return &ProjectPhaseState{
		ProjectID:       projectID,
		CurrentPhase:    PhaseOnboarding,
		ProgressPercent: 0,
		EnteredAt:       now,
		UpdatedAt:       now,
	}
}
