package httpapi

import (
	"context"
	"net/http"

	"github.com/calliope-studio/portal/internal/domain"
)

type contextKey int

const actorContextKey contextKey = iota

// WithActor resolves the caller identity from the X-Actor-Id and X-Actor-Role
// headers set by the auth gateway in front of this service. Requests without
// an identity default to an anonymous client: the least-privileged role.
func WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := domain.Actor{
			ID:   r.Header.Get("X-Actor-Id"),
			Role: domain.Role(r.Header.Get("X-Actor-Role")),
		}
		if actor.ID == "" {
			actor.ID = "anonymous"
		}
		switch actor.Role {
		case domain.RoleClient, domain.RoleStaff, domain.RoleSystem:
		default:
			actor.Role = domain.RoleClient
		}
		ctx := context.WithValue(r.Context(), actorContextKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the actor placed by WithActor. Handlers behind the
// middleware can rely on it being present.
func ActorFromContext(ctx context.Context) domain.Actor {
	if a, ok := ctx.Value(actorContextKey).(domain.Actor); ok {
		return a
	}
	return domain.Actor{ID: "anonymous", Role: domain.RoleClient}
}
