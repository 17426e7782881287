package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// ScopeSync is required to trigger a catalog synchronization
const ScopeSync = "sync"

// RequireScope ensures the authenticated caller was granted scope.
// With an empty secret the guard is disabled together with AuthMiddleware.
func RequireScope(scope, jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if jwtSecret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scopes, ok := GetScopes(r.Context())
			if !ok {
				logger.Warn("Scopes not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			for _, granted := range scopes {
				if granted == scope {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("Caller lacks required scope",
				zap.String("required", scope),
				zap.Strings("granted", scopes),
			)
			RespondWithError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}
