package service

import (
	"context"
	"testing"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_ClientCannotToggleStaffOwnedKinds(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	p := ts.createProject(t, "Brand refresh")

	// Payment and document completions are owned by the webhook and staff.
	for _, reqID := range []string{"onb_deposit", "onb_agreement", "onb_intake_form"} {
		_, err := ts.requirements.Toggle(ctx, client, p.ID, reqID, true)
		assert.ErrorIs(t, err, domain.ErrUnauthorizedToggle, reqID)
	}

	completions, err := ts.requirements.ListCompletions(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, completions, "rejected toggles must not persist")
}

func TestToggle_ClientSelfServiceKinds(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	p := ts.createProject(t, "Brand refresh")
	ts.movePhase(t, p.ID, domain.PhaseIdeation)

	// Review and confirm are client-facing checklist items.
	res, err := ts.requirements.Toggle(ctx, client, p.ID, "idea_brief_review", true)
	require.NoError(t, err)
	assert.False(t, res.Evaluation.Advanced)

	res, err = ts.requirements.Toggle(ctx, client, p.ID, "idea_moodboard_confirm", true)
	require.NoError(t, err)
	assert.True(t, res.Evaluation.Advanced)
	assert.Equal(t, domain.PhaseDesign, res.Evaluation.NewPhase)

	completions, err := ts.requirements.ListCompletions(ctx, p.ID)
	require.NoError(t, err)
	for _, c := range completions {
		require.NotNil(t, c.CompletedBy)
		assert.Equal(t, client.ID, *c.CompletedBy)
	}
}

func TestToggle_StaffCanToggleAnything(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	p := ts.createProject(t, "Brand refresh")

	for _, reqID := range []string{"onb_intake_form", "onb_agreement"} {
		_, err := ts.requirements.Toggle(ctx, staff, p.ID, reqID, true)
		require.NoError(t, err)
	}
}

func TestToggle_UnknownRequirement(t *testing.T) {
	ts := newTestServices(t)
	p := ts.createProject(t, "Brand refresh")

	_, err := ts.requirements.Toggle(context.Background(), staff, p.ID, "onb_missing", true)
	assert.ErrorIs(t, err, domain.ErrRequirementNotFound)
}

// Scenario: staff flips an optional requirement on and off repeatedly while
// the mandatory ones stay incomplete. Nothing may advance and the stored
// state must track the last write.
func TestToggle_OptionalFlappingNeverAdvances(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	p := ts.createProject(t, "Brand refresh")
	ts.movePhase(t, p.ID, domain.PhaseProduction)

	for i := 0; i < 4; i++ {
		completed := i%2 == 0
		res, err := ts.requirements.Toggle(ctx, staff, p.ID, "prod_press_check", completed)
		require.NoError(t, err)
		assert.False(t, res.Evaluation.Advanced)
		assert.Equal(t, completed, res.Completion.Completed)
	}

	state, err := ts.projects.GetPhaseState(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseProduction, state.CurrentPhase)

	completions, err := ts.requirements.ListCompletions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, completions, 1)
	assert.False(t, completions[0].Completed, "last write was the off toggle")
	assert.Empty(t, *ts.transitions)
}

func TestToggle_UncompleteAfterAdvanceDoesNotRegress(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	p := ts.createProject(t, "Brand refresh")
	ts.movePhase(t, p.ID, domain.PhaseIdeation)

	_, err := ts.requirements.Toggle(ctx, client, p.ID, "idea_brief_review", true)
	require.NoError(t, err)
	res, err := ts.requirements.Toggle(ctx, client, p.ID, "idea_moodboard_confirm", true)
	require.NoError(t, err)
	require.True(t, res.Evaluation.Advanced)

	// Staff retracts one of the ideation completions afterwards.
	res, err = ts.requirements.Toggle(ctx, staff, p.ID, "idea_brief_review", false)
	require.NoError(t, err)
	assert.False(t, res.Evaluation.Advanced)

	state, err := ts.projects.GetPhaseState(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDesign, state.CurrentPhase, "phase never moves backwards")
}

func TestListDefinitions(t *testing.T) {
	ts := newTestServices(t)

	defs, err := ts.requirements.ListDefinitions(context.Background(), domain.PhaseOnboarding)
	require.NoError(t, err)
	require.Len(t, defs, 4)
	assert.Equal(t, "onb_intake_form", defs[0].ID)

	_, err = ts.requirements.ListDefinitions(context.Background(), "BOGUS")
	assert.ErrorIs(t, err, domain.ErrInvalidPhaseKey)
}
