package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/api-sage/core-banking-ledger/src/internal/domain"
	"github.com/api-sage/core-banking-ledger/src/internal/logger"
)

type contextKey string

const actorContextKey contextKey = "actor"

const headerUserID = "X-User-Id"
const headerUserRole = "X-User-Role"

// ActorContext trusts the authenticated channel to assert the acting
// identity via headers and injects it into the request context. Requests
// without a usable identity never reach a handler.
func ActorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(headerUserID))
		role := domain.Role(strings.ToUpper(strings.TrimSpace(r.Header.Get(headerUserRole))))

		if userID == "" || (role != domain.RoleCustomer && role != domain.RoleAdmin) {
			logger.Info("actor context middleware missing or invalid identity headers", logger.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			http.Error(w, "missing or invalid identity", http.StatusUnauthorized)
			return
		}

		actor := domain.Actor{UserID: userID, Role: role}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(domain.Actor)
	return actor, ok
}
