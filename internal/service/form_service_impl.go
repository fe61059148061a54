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
	"github.com/google/uuid"
)

type formService struct {
	submissions repository.SubmissionRepo
	uow         db.UnitOfWork
	eng         *engine.Engine
	observer    UseCaseObserver
}

// NewFormService creates the form-submission adapter.
func NewFormService(database *sql.DB, uow db.UnitOfWork, eng *engine.Engine, observers ...UseCaseObserver) FormService {
	return &formService{
		submissions: repository.NewSQLiteSubmissionRepo(database),
		uow:         uow,
		eng:         eng,
		observer:    useCaseObserverOrNoop(observers),
	}
}

func (s *formService) Submit(ctx context.Context, actor domain.Actor, in FormSubmissionInput) (result *FormSubmitResult, err error) {
	started := time.Now()
	defer func() {
		observe(ctx, s.observer, "form_submit", started, err, map[string]any{
			"project_id": in.ProjectID,
			"phase_key":  string(in.PhaseKey),
			"module_id":  in.ModuleID,
		})
	}()

	if !domain.ValidPhaseKey(in.PhaseKey) {
		return nil, fmt.Errorf("phase %q: %w", in.PhaseKey, domain.ErrInvalidPhaseKey)
	}

	submission := &domain.FormSubmission{
		ID:          uuid.New().String(),
		ProjectID:   in.ProjectID,
		PhaseKey:    in.PhaseKey,
		ModuleID:    in.ModuleID,
		Payload:     in.Payload,
		SubmittedBy: actor.ID,
		CreatedAt:   time.Now().UTC(),
	}

	var satisfied []string
	var evaluation engine.Result
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		p, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if p.Status == domain.ProjectArchived {
			return fmt.Errorf("project %s: %w", in.ProjectID, domain.ErrProjectArchived)
		}

		// Defends against stale client state submitting into a phase the
		// project has already left. Nothing is written on mismatch.
		state, err := repository.NewSQLitePhaseStateRepo(tx).GetByProject(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if state.CurrentPhase != in.PhaseKey {
			return fmt.Errorf("submitted %s, project is in %s: %w",
				in.PhaseKey, state.CurrentPhase, domain.ErrPhaseMismatch)
		}

		if err := repository.NewSQLiteSubmissionRepo(tx).Create(ctx, submission); err != nil {
			return err
		}

		// A submission may satisfy zero requirements: some forms are purely
		// informational.
		defs, err := domain.RequirementsForPhase(state.CurrentPhase)
		if err != nil {
			return err
		}
		completionRepo := repository.NewSQLiteCompletionRepo(tx)
		now := time.Now().UTC()
		for _, def := range defs {
			if def.Kind != domain.KindForm || def.ModuleID != in.ModuleID {
				continue
			}
			c := &domain.RequirementCompletion{
				ProjectID:     in.ProjectID,
				RequirementID: def.ID,
				Completed:     true,
				CompletedBy:   &actor.ID,
				CompletedAt:   &now,
				UpdatedAt:     now,
			}
			if err := completionRepo.Upsert(ctx, c); err != nil {
				return err
			}
			satisfied = append(satisfied, def.ID)
		}

		var evalErr error
		evaluation, evalErr = s.eng.Evaluate(ctx, tx, in.ProjectID)
		return evalErr
	})
	if err != nil {
		return nil, err
	}

	s.eng.Publish(ctx, evaluation.Transition)
	return &FormSubmitResult{
		Submission:            submission,
		SatisfiedRequirements: satisfied,
		Evaluation:            evaluation,
	}, nil
}

func (s *formService) ListByProject(ctx context.Context, projectID string) ([]*domain.FormSubmission, error) {
	return s.submissions.ListByProject(ctx, projectID)
}
