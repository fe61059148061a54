package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/repository"
	"github.com/calliope-studio/portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEvaluate_Invariants_RandomToggleSequences property-tests the two core
// state invariants: the phase key is always one of the eight defined keys,
// and progress never decreases, for arbitrary interleavings of requirement
// toggles, untoggles and evaluations.
func TestEvaluate_Invariants_RandomToggleSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	catalog := domain.Requirements()

	for trial := 0; trial < 25; trial++ {
		database := testutil.NewTestDB(t)
		p := seedProject(t, database)
		ctx := context.Background()
		eng := New()
		completions := repository.NewSQLiteCompletionRepo(database)
		states := repository.NewSQLitePhaseStateRepo(database)

		lastProgress := 0
		lastOrdinal := 0
		steps := rng.Intn(60) + 20

		for step := 0; step < steps; step++ {
			req := catalog[rng.Intn(len(catalog))]
			completed := rng.Intn(3) != 0 // bias toward completing

			c := &domain.RequirementCompletion{
				ProjectID:     p.ID,
				RequirementID: req.ID,
				Completed:     completed,
				UpdatedAt:     time.Now().UTC(),
			}
			if completed {
				actor := "fuzz"
				now := time.Now().UTC()
				c.CompletedBy = &actor
				c.CompletedAt = &now
			}
			require.NoError(t, completions.Upsert(ctx, c))

			_, err := eng.Evaluate(ctx, database, p.ID)
			require.NoError(t, err)

			state, err := states.GetByProject(ctx, p.ID)
			require.NoError(t, err)

			phase, err := domain.GetPhase(state.CurrentPhase)
			require.NoError(t, err, "trial %d step %d: phase key must always be valid", trial, step)

			assert.GreaterOrEqual(t, state.ProgressPercent, lastProgress,
				"trial %d step %d: progress must never decrease", trial, step)
			assert.GreaterOrEqual(t, phase.Ordinal, lastOrdinal,
				"trial %d step %d: phase must never move backwards", trial, step)

			lastProgress = state.ProgressPercent
			lastOrdinal = phase.Ordinal
		}
	}
}
