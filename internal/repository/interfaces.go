package repository

import (
	"context"
	"errors"

	"github.com/calliope-studio/portal/internal/domain"
)

// ErrNotFound is reported when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
}

// PhaseStateRepo persists the single ProjectPhaseState row each project owns.
// Only the advancement engine mutates it; adapters never write it directly.
type PhaseStateRepo interface {
	Create(ctx context.Context, s *domain.ProjectPhaseState) error
	GetByProject(ctx context.Context, projectID string) (*domain.ProjectPhaseState, error)
	Update(ctx context.Context, s *domain.ProjectPhaseState) error
}

// RequirementRepo reads the seeded phase_requirements table. The in-code
// catalog is the source of truth for gating; this repo serves the persisted
// mirror used by the HTTP listing endpoints and reporting joins.
type RequirementRepo interface {
	ListByPhase(ctx context.Context, key domain.PhaseKey) ([]domain.RequirementDefinition, error)
	GetByID(ctx context.Context, id string) (domain.RequirementDefinition, error)
}

// CompletionRepo owns the per-(project, requirement) completion records.
// Upsert is a single conflict-clause statement, never read-modify-write, so
// concurrent toggles of the same pair are last-writer-wins.
type CompletionRepo interface {
	Upsert(ctx context.Context, c *domain.RequirementCompletion) error
	Get(ctx context.Context, projectID, requirementID string) (*domain.RequirementCompletion, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.RequirementCompletion, error)
	IsSatisfied(ctx context.Context, projectID, requirementID string) (bool, error)
}

type SubmissionRepo interface {
	Create(ctx context.Context, s *domain.FormSubmission) error
	ListByProject(ctx context.Context, projectID string) ([]*domain.FormSubmission, error)
}

// PaymentEventRepo is the webhook idempotency ledger. MarkProcessed reports
// false when the event was already recorded, letting redeliveries
// short-circuit without re-processing.
type PaymentEventRepo interface {
	MarkProcessed(ctx context.Context, e *domain.ProcessedPaymentEvent) (bool, error)
	WasProcessed(ctx context.Context, eventID string) (bool, error)
}
