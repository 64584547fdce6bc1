package http

import (
	"net/http"
	"strings"

	"github.com/pressfwd/sourcedesk/pkg/httpx"
)

// AuthnMiddleware verifies the Authorization bearer token and injects the
// authenticated identity into the request context.
func AuthnMiddleware(sessions *Sessions) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.WriteError(w, http.StatusUnauthorized,
					"unauthorized", "Missing bearer token.")
				return
			}

			userID, isAdmin, err := sessions.Verify(token)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized,
					"unauthorized", "Invalid or expired session.")
				return
			}

			ctx := httpx.ContextWithAuth(r.Context(), userID, isAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests from non-administrative users. Must run after
// AuthnMiddleware.
func RequireAdmin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !httpx.IsAdminFromCtx(r.Context()) {
				httpx.WriteError(w, http.StatusForbidden,
					"forbidden", "Administrator access required.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
