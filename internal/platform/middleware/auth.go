package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator checks bearer tokens issued by the external auth service.
type TokenValidator interface {
	ValidateToken(tokenString string) (*OperatorClaims, error)
}

// OperatorClaims identifies the gate operator behind an authenticated request.
type OperatorClaims struct {
	OperatorID string
	Name       string
}

type contextKeyOperatorID struct{}

// GetOperatorID retrieves the authenticated operator ID from the context.
func GetOperatorID(ctx context.Context) string {
	operatorID, ok := ctx.Value(contextKeyOperatorID{}).(string)
	if !ok {
		return ""
	}
	return operatorID
}

// RequireAuth rejects requests without a valid bearer token. Token issuance
// belongs to the external auth service; only verification happens here.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w, "Missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyOperatorID{}, claims.OperatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
