package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/engine"
	"github.com/calliope-studio/portal/internal/testutil"
	"github.com/stretchr/testify/require"
)

// testServices bundles the full adapter stack over one in-memory database.
type testServices struct {
	db           *sql.DB
	eng          *engine.Engine
	projects     ProjectService
	requirements RequirementService
	forms        FormService
	webhooks     PaymentWebhookService
	transitions  *[]engine.Transition
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	var transitions []engine.Transition
	eng := engine.New(engine.ObserverFunc(func(_ context.Context, tr engine.Transition) {
		transitions = append(transitions, tr)
	}))

	return &testServices{
		db:           database,
		eng:          eng,
		projects:     NewProjectService(database, uow, eng),
		requirements: NewRequirementService(database, uow, eng),
		forms:        NewFormService(database, uow, eng),
		webhooks:     NewPaymentWebhookService(uow, eng),
		transitions:  &transitions,
	}
}

func (ts *testServices) createProject(t *testing.T, name string) *domain.Project {
	t.Helper()
	p := testutil.NewTestProject(name)
	require.NoError(t, ts.projects.Create(context.Background(), p))
	return p
}

var (
	staff  = domain.Actor{ID: "staff-1", Role: domain.RoleStaff}
	client = domain.Actor{ID: "client-1", Role: domain.RoleClient}
)
