package middleware

import (
	"net/http"
	"strings"

	"settlement-engine/pkg/utils"

	"go.uber.org/zap"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// Actor reads the caller identity forwarded by the gateway. Requests
// without an actor ID are rejected.
func Actor(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := strings.TrimSpace(r.Header.Get(HeaderActorID))
			if actorID == "" {
				logger.Warn("Missing actor header", zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Missing "+HeaderActorID+" header")
				return
			}

			role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderActorRole)))
			if role == "" {
				role = utils.RoleOperator
			}

			ctx := utils.SetActorContext(r.Context(), actorID, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin - middleware cek role admin. Must run after Actor.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID, ok := utils.GetActorIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, _ := utils.GetRoleFromContext(r.Context())
			if role != utils.RoleAdmin {
				logger.Warn("Admin check: non-admin access attempt",
					zap.String("actor_id", actorID),
					zap.String("role", role),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
