package repository

import (
	"context"
	"testing"
	"time"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseState_CreateAndGet(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	p := seedProject(t, NewSQLiteProjectRepo(database), NewSQLitePhaseStateRepo(database))

	got, err := NewSQLitePhaseStateRepo(database).GetByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseOnboarding, got.CurrentPhase)
	assert.Equal(t, 0, got.ProgressPercent)
	assert.Nil(t, got.CompletedAt)
}

func TestPhaseState_Update(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewSQLitePhaseStateRepo(database)
	p := seedProject(t, NewSQLiteProjectRepo(database), repo)

	state, err := repo.GetByProject(ctx, p.ID)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	state.CurrentPhase = domain.PhaseIdeation
	state.ProgressPercent = 25
	state.EnteredAt = now
	state.UpdatedAt = now
	require.NoError(t, repo.Update(ctx, state))

	got, err := repo.GetByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdeation, got.CurrentPhase)
	assert.Equal(t, 25, got.ProgressPercent)
	assert.Equal(t, now, got.EnteredAt.Truncate(time.Second))
}

func TestPhaseState_NotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLitePhaseStateRepo(database)

	_, err := repo.GetByProject(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	state := domain.NewPhaseState("missing", time.Now().UTC())
	state.CurrentPhase = domain.PhaseIdeation
	err = repo.Update(context.Background(), state)
	assert.ErrorIs(t, err, ErrNotFound)
}
