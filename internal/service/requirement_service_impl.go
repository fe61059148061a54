package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/engine"
	"github.com/calliope-studio/portal/internal/repository"
)

type requirementService struct {
	completions  repository.CompletionRepo
	requirements repository.RequirementRepo
	uow          db.UnitOfWork
	eng          *engine.Engine
	observer     UseCaseObserver
}

// NewRequirementService creates the manual-toggle adapter.
func NewRequirementService(database *sql.DB, uow db.UnitOfWork, eng *engine.Engine, observers ...UseCaseObserver) RequirementService {
	return &requirementService{
		completions:  repository.NewSQLiteCompletionRepo(database),
		requirements: repository.NewSQLiteRequirementRepo(database),
		uow:          uow,
		eng:          eng,
		observer:     useCaseObserverOrNoop(observers),
	}
}

func (s *requirementService) Toggle(ctx context.Context, actor domain.Actor, projectID, requirementID string, completed bool) (result *ToggleResult, err error) {
	started := time.Now()
	defer func() {
		observe(ctx, s.observer, "requirement_toggle", started, err, map[string]any{
			"project_id":     projectID,
			"requirement_id": requirementID,
			"actor_role":     string(actor.Role),
			"completed":      completed,
		})
	}()

	def, err := domain.RequirementByID(requirementID)
	if err != nil {
		return nil, err
	}
	if !actor.CanToggle(def.Kind) {
		return nil, fmt.Errorf("requirement %s (kind %s): %w", requirementID, def.Kind, domain.ErrUnauthorizedToggle)
	}

	completion := &domain.RequirementCompletion{
		ProjectID:     projectID,
		RequirementID: requirementID,
		Completed:     completed,
		UpdatedAt:     time.Now().UTC(),
	}
	if completed {
		now := time.Now().UTC()
		completion.CompletedBy = &actor.ID
		completion.CompletedAt = &now
	}

	var evaluation engine.Result
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		p, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if p.Status == domain.ProjectArchived {
			return fmt.Errorf("project %s: %w", projectID, domain.ErrProjectArchived)
		}
		if err := repository.NewSQLiteCompletionRepo(tx).Upsert(ctx, completion); err != nil {
			return err
		}
		var evalErr error
		evaluation, evalErr = s.eng.Evaluate(ctx, tx, projectID)
		return evalErr
	})
	if err != nil {
		return nil, err
	}

	s.eng.Publish(ctx, evaluation.Transition)
	return &ToggleResult{Completion: completion, Evaluation: evaluation}, nil
}

func (s *requirementService) ListCompletions(ctx context.Context, projectID string) ([]*domain.RequirementCompletion, error) {
	return s.completions.ListByProject(ctx, projectID)
}

func (s *requirementService) ListDefinitions(ctx context.Context, key domain.PhaseKey) ([]domain.RequirementDefinition, error) {
	return s.requirements.ListByPhase(ctx, key)
}
