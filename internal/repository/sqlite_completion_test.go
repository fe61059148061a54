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

func seedProject(t *testing.T, repo *SQLiteProjectRepo, stateRepo *SQLitePhaseStateRepo) *domain.Project {
	t.Helper()
	ctx := context.Background()
	p := testutil.NewTestProject("Brand refresh")
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, stateRepo.Create(ctx, domain.NewPhaseState(p.ID, p.CreatedAt)))
	return p
}

func TestCompletionUpsert_CreatesThenOverwrites(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	p := seedProject(t, NewSQLiteProjectRepo(database), NewSQLitePhaseStateRepo(database))
	repo := NewSQLiteCompletionRepo(database)

	require.NoError(t, repo.Upsert(ctx, testutil.NewTestCompletion(p.ID, "onb_agreement", "client-1")))

	got, err := repo.Get(ctx, p.ID, "onb_agreement")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedBy)
	assert.Equal(t, "client-1", *got.CompletedBy)
	assert.NotNil(t, got.CompletedAt)

	// Toggle off: row stays, completed fields clear.
	off := &domain.RequirementCompletion{
		ProjectID:     p.ID,
		RequirementID: "onb_agreement",
		Completed:     false,
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(ctx, off))

	got, err = repo.Get(ctx, p.ID, "onb_agreement")
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedBy)
	assert.Nil(t, got.CompletedAt)

	list, err := repo.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "upsert must never duplicate the (project, requirement) row")
}

func TestIsSatisfied_MissingRowMeansIncomplete(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	p := seedProject(t, NewSQLiteProjectRepo(database), NewSQLitePhaseStateRepo(database))
	repo := NewSQLiteCompletionRepo(database)

	ok, err := repo.IsSatisfied(ctx, p.ID, "onb_deposit")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Upsert(ctx, testutil.NewTestCompletion(p.ID, "onb_deposit", "stripe:webhook")))
	ok, err = repo.IsSatisfied(ctx, p.ID, "onb_deposit")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompletionGet_NotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := NewSQLiteCompletionRepo(database)

	_, err := repo.Get(context.Background(), "missing-project", "onb_deposit")
	assert.ErrorIs(t, err, ErrNotFound)
}
