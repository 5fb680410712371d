package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"auction-marketplace/internal/auth"
	"auction-marketplace/pkg/logger"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// AuthenticateHTTP is the plain net/http counterpart of Authenticate,
// for services routed with gorilla/mux.
func AuthenticateHTTP(secret string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Missing authorization token")
				return
			}

			claims, err := auth.ParseToken(token, secret)
			if err != nil {
				log.Warn("Rejected token", "path", r.URL.Path, "error", err)
				writeJSONError(w, http.StatusUnauthorized, "Invalid authorization token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoleHTTP guards a single handler with a role check. Must wrap
// handlers behind AuthenticateHTTP.
func RequireRoleHTTP(handler http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			writeJSONError(w, http.StatusUnauthorized, "Missing authorization token")
			return
		}
		if !claims.HasRole(roles...) {
			writeJSONError(w, http.StatusForbidden, "Insufficient role")
			return
		}
		handler(w, r)
	}
}

// ClaimsFromContext returns the claims stored by AuthenticateHTTP, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

// CORS sets permissive CORS headers and answers preflight requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
