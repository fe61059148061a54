package mirror

import (
	"context"
	"time"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/service"
)

// ServiceFetcher is the in-process Fetcher, reading through the same
// services the HTTP surface serves. The status CLI uses it.
type ServiceFetcher struct {
	projects     service.ProjectService
	requirements service.RequirementService
}

func NewServiceFetcher(projects service.ProjectService, requirements service.RequirementService) *ServiceFetcher {
	return &ServiceFetcher{projects: projects, requirements: requirements}
}

func (f *ServiceFetcher) FetchSnapshot(ctx context.Context, projectID string) (*Snapshot, error) {
	state, err := f.projects.GetPhaseState(ctx, projectID)
	if err != nil {
		return nil, err
	}
	phase, err := domain.GetPhase(state.CurrentPhase)
	if err != nil {
		return nil, err
	}
	defs, err := f.requirements.ListDefinitions(ctx, state.CurrentPhase)
	if err != nil {
		return nil, err
	}
	completions, err := f.requirements.ListCompletions(ctx, projectID)
	if err != nil {
		return nil, err
	}

	completed := make(map[string]bool, len(completions))
	for _, c := range completions {
		completed[c.RequirementID] = c.Completed
	}

	snap := &Snapshot{
		ProjectID:       projectID,
		PhaseKey:        state.CurrentPhase,
		PhaseName:       phase.DisplayName,
		ProgressPercent: state.ProgressPercent,
		FetchedAt:       time.Now().UTC(),
	}
	for _, def := range defs {
		snap.Requirements = append(snap.Requirements, RequirementStatus{
			ID:        def.ID,
			Text:      def.Text,
			Mandatory: def.Mandatory,
			Kind:      def.Kind,
			Completed: completed[def.ID],
		})
	}
	return snap, nil
}
