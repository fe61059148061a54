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

type projectService struct {
	projects repository.ProjectRepo
	states   repository.PhaseStateRepo
	uow      db.UnitOfWork
	eng      *engine.Engine
	observer UseCaseObserver
}

// NewProjectService creates the project lifecycle service.
func NewProjectService(database *sql.DB, uow db.UnitOfWork, eng *engine.Engine, observers ...UseCaseObserver) ProjectService {
	return &projectService{
		projects: repository.NewSQLiteProjectRepo(database),
		states:   repository.NewSQLitePhaseStateRepo(database),
		uow:      uow,
		eng:      eng,
		observer: useCaseObserverOrNoop(observers),
	}
}

// Create inserts the project with its initial ONB phase state, then runs one
// advancement evaluation so a project never stalls in a phase with nothing
// to gate.
func (s *projectService) Create(ctx context.Context, p *domain.Project) (err error) {
	started := time.Now()
	defer func() {
		observe(ctx, s.observer, "project_create", started, err, map[string]any{"project_id": p.ID})
	}()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}

	var result engine.Result
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteProjectRepo(tx).Create(ctx, p); err != nil {
			return err
		}
		if err := repository.NewSQLitePhaseStateRepo(tx).Create(ctx, domain.NewPhaseState(p.ID, now)); err != nil {
			return err
		}
		var evalErr error
		result, evalErr = s.eng.Evaluate(ctx, tx, p.ID)
		return evalErr
	})
	if err != nil {
		return err
	}
	s.eng.Publish(ctx, result.Transition)
	return nil
}

func (s *projectService) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *projectService) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	return s.projects.List(ctx, includeArchived)
}

func (s *projectService) Archive(ctx context.Context, id string) error {
	if _, err := s.projects.GetByID(ctx, id); err != nil {
		return err
	}
	return s.projects.Archive(ctx, id)
}

func (s *projectService) Unarchive(ctx context.Context, id string) error {
	if _, err := s.projects.GetByID(ctx, id); err != nil {
		return err
	}
	return s.projects.Unarchive(ctx, id)
}

func (s *projectService) GetPhaseState(ctx context.Context, projectID string) (*domain.ProjectPhaseState, error) {
	return s.states.GetByProject(ctx, projectID)
}

func (s *projectService) CheckAdvancement(ctx context.Context, projectID string) (result engine.Result, err error) {
	started := time.Now()
	defer func() {
		observe(ctx, s.observer, "check_advancement", started, err, map[string]any{
			"project_id": projectID,
			"advanced":   result.Advanced,
		})
	}()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		p, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if p.Status == domain.ProjectArchived {
			return fmt.Errorf("project %s: %w", projectID, domain.ErrProjectArchived)
		}
		var evalErr error
		result, evalErr = s.eng.Evaluate(ctx, tx, projectID)
		return evalErr
	})
	if err != nil {
		return engine.Result{}, err
	}
	s.eng.Publish(ctx, result.Transition)
	return result, nil
}
