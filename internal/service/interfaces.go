package service

import (
	"context"
	"encoding/json"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/engine"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	GetPhaseState(ctx context.Context, projectID string) (*domain.ProjectPhaseState, error)
	// CheckAdvancement forces one re-evaluation without a new completion,
	// used after external state changes. Single-step: callers loop if they
	// want cascading.
	CheckAdvancement(ctx context.Context, projectID string) (engine.Result, error)
}

// ToggleResult is returned by a manual requirement toggle.
type ToggleResult struct {
	Completion *domain.RequirementCompletion
	Evaluation engine.Result
}

type RequirementService interface {
	// Toggle flips a single requirement's completion for an authenticated
	// actor. Client-role actors are limited to the self-service kinds.
	Toggle(ctx context.Context, actor domain.Actor, projectID, requirementID string, completed bool) (*ToggleResult, error)
	ListCompletions(ctx context.Context, projectID string) ([]*domain.RequirementCompletion, error)
	ListDefinitions(ctx context.Context, key domain.PhaseKey) ([]domain.RequirementDefinition, error)
}

// FormSubmissionInput is an inbound client form submission.
type FormSubmissionInput struct {
	ProjectID string
	PhaseKey  domain.PhaseKey
	ModuleID  string
	Payload   json.RawMessage
}

// FormSubmitResult reports what a submission satisfied.
type FormSubmitResult struct {
	Submission            *domain.FormSubmission
	SatisfiedRequirements []string
	Evaluation            engine.Result
}

type FormService interface {
	// Submit validates the submission against the project's current phase
	// (stale clients get ErrPhaseMismatch and nothing is written), persists
	// it, completes matching form requirements and re-evaluates advancement.
	Submit(ctx context.Context, actor domain.Actor, in FormSubmissionInput) (*FormSubmitResult, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.FormSubmission, error)
}

// PaymentEvent is the decoded inbound webhook event. PhaseKey optionally
// names the phase whose payment requirement the charge settles; it defaults
// to PAY when absent.
type PaymentEvent struct {
	ID        string
	Type      string
	ProjectID string
	PhaseKey  domain.PhaseKey
}

// WebhookResult reports the outcome of processing a payment event.
type WebhookResult struct {
	Processed        bool
	AlreadyProcessed bool
	Ignored          bool
	Evaluation       engine.Result
}

type PaymentWebhookService interface {
	// HandleEvent processes an at-least-once, possibly out-of-order payment
	// event. Redelivered events succeed without re-processing.
	HandleEvent(ctx context.Context, ev PaymentEvent) (*WebhookResult, error)
}
