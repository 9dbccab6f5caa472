package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pollwise/pollwise-be/internal/models"
)

type contextKey string

// UserClaimsKey is the context key for user claims.
const UserClaimsKey = contextKey("userClaims")

// FromContext extracts the authenticated identity from a request context.
// The second return is false on requests that went through no (or only
// optional) authentication.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

// IsOwnerOrAdmin reports whether the identity may mutate a resource owned by
// resourceOwnerID.
func IsOwnerOrAdmin(resourceOwnerID string, claims *Claims) bool {
	if claims == nil {
		return false
	}
	return claims.Role == models.RoleAdmin || claims.UserID == resourceOwnerID
}

// bearerToken pulls the token out of the Authorization header. The Bearer
// prefix is standard; a bare token is accepted for compatibility.
func bearerToken(header string) string {
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(header)
}

// Authenticate extracts and validates the bearer token, attaching the
// identity to the request context. Requests without a valid token get 401
// before any downstream role or ownership check can produce a 403.
func (m *TokenManager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeAuthError(w, http.StatusUnauthorized, "Access denied", "No token provided")
			return
		}

		tokenStr := bearerToken(header)
		if tokenStr == "" {
			writeAuthError(w, http.StatusUnauthorized, "Access denied", "Invalid token format")
			return
		}

		claims, err := m.Validate(tokenStr)
		if err != nil {
			message := "Invalid token"
			switch {
			case errors.Is(err, ErrTokenExpired):
				message = "Token expired"
			case errors.Is(err, ErrTokenNotYetValid):
				message = "Token not valid yet"
			}
			writeAuthError(w, http.StatusUnauthorized, "Authentication failed", message)
			return
		}

		ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate attaches an identity when a valid token is present and
// lets the request through anonymously otherwise. Used on public endpoints
// that enrich their response for logged-in callers.
func (m *TokenManager) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokenStr := bearerToken(r.Header.Get("Authorization")); tokenStr != "" {
			if claims, err := m.Validate(tokenStr); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), UserClaimsKey, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole gates a route to the given roles. Must be composed after
// Authenticate; a request that somehow lacks an identity gets 401, a wrong
// role gets 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := FromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Access denied", "Authentication required")
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeAuthError(w, http.StatusForbidden, "Forbidden",
				"Access denied. Required role(s): "+strings.Join(roles, ", "))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   errType,
		"message": message,
	})
}
