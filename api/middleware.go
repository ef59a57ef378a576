/*
middleware.go - Actor resolution and role gates

PURPOSE:
  Resolves the acting user for every /api request and enforces coarse
  role-based access before handlers run. Authentication itself (passwords,
  tokens) is out of scope; the actor is identified by the X-Actor-ID header
  and must resolve to an existing user.

ACTOR RESOLUTION:
  1. Read X-Actor-ID
  2. Load the user from the store
  3. Stash the user in the request context

ROLE GATES:
  RequireAdmin          admin only
  RequireManagerOrAdmin manager or admin

  Finer checks that need domain data (is this reviewer the requester's
  department manager, is this actor the requester) live in the hr package,
  not here.

SEE ALSO:
  - server.go: Middleware ordering
  - hr/leave.go: Domain-level authorization
*/
package api

import (
	"context"
	"net/http"

	"github.com/warp/hr-engine/hr"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorFromContext returns the acting user resolved by WithActor.
func ActorFromContext(ctx context.Context) (*hr.User, bool) {
	u, ok := ctx.Value(actorKey).(*hr.User)
	return u, ok
}

// WithActor resolves the X-Actor-ID header into a user and injects it into
// the request context. Requests without a resolvable actor get 401.
func WithActor(users hr.UserStore) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Actor-ID")
			if id == "" {
				writeError(w, http.StatusUnauthorized, "Missing X-Actor-ID header", nil)
				return
			}

			actor, err := users.GetUser(r.Context(), hr.UserID(id))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to resolve actor", err)
				return
			}
			if actor == nil {
				writeError(w, http.StatusUnauthorized, "Unknown actor", nil)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects non-admin actors with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || !actor.Roles.IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManagerOrAdmin rejects actors that are neither managers nor admins.
func RequireManagerOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || (!actor.Roles.IsManager() && !actor.Roles.IsAdmin()) {
			writeError(w, http.StatusForbidden, "Manager or admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
