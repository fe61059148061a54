package testutil

import (
	"time"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/google/uuid"
)

// Project options
type ProjectOption func(*domain.Project)

func WithClientName(name string) ProjectOption {
	return func(p *domain.Project) {
		p.ClientName = name
	}
}

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

// NewTestProject builds an active project with sensible defaults.
func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:         uuid.New().String(),
		Name:       name,
		ClientName: "Test Client",
		Status:     domain.ProjectActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewTestCompletion builds a completed requirement record for the given pair.
func NewTestCompletion(projectID, requirementID, actorID string) *domain.RequirementCompletion {
	now := time.Now().UTC()
	return &domain.RequirementCompletion{
		ProjectID:     projectID,
		RequirementID: requirementID,
		Completed:     true,
		CompletedBy:   &actorID,
		CompletedAt:   &now,
		UpdatedAt:     now,
	}
}
