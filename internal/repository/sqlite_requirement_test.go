package repository

import (
	"context"
	"testing"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementRepo_ListByPhase(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteRequirementRepo(database)

	defs, err := repo.ListByPhase(context.Background(), domain.PhaseOnboarding)
	require.NoError(t, err)

	want, err2 := domain.RequirementsForPhase(domain.PhaseOnboarding)
	require.NoError(t, err2)
	require.Len(t, defs, len(want))

	// Seeded rows come back in display order and match the catalog.
	for i, def := range defs {
		assert.Equal(t, want[i].ID, def.ID)
		assert.Equal(t, want[i].Mandatory, def.Mandatory)
		assert.Equal(t, want[i].Kind, def.Kind)
		assert.Equal(t, want[i].ModuleID, def.ModuleID)
	}
}

func TestRequirementRepo_ListByPhase_InvalidKey(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteRequirementRepo(database)

	_, err := repo.ListByPhase(context.Background(), "BOGUS")
	assert.ErrorIs(t, err, domain.ErrInvalidPhaseKey)
}

func TestRequirementRepo_GetByID(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteRequirementRepo(database)

	def, err := repo.GetByID(context.Background(), "prod_press_check")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseProduction, def.PhaseKey)
	assert.False(t, def.Mandatory)
	assert.Equal(t, domain.KindApproval, def.Kind)

	_, err = repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrRequirementNotFound)
}
