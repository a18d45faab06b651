package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// claimsKey is the context key for the verified access token claims.
const claimsKey ctxKey = "claims"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID  int64
	Email   string
	IsAdmin bool
}

// GetPrincipal returns the authenticated caller from context.
// Returns 401 error if the request carried no valid token.
func GetPrincipal(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(claimsKey).(Principal)
	if !ok || p.UserID == 0 {
		return Principal{}, huma.Error401Unauthorized("Authentication required")
	}
	return p, nil
}

// GetUserID returns the authenticated user ID from context.
func GetUserID(ctx context.Context) (int64, error) {
	p, err := GetPrincipal(ctx)
	if err != nil {
		return 0, err
	}
	return p.UserID, nil
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, claimsKey, p)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores the caller in context.
// If no token is present or invalid, continues without a caller.
// Handlers use GetUserID to check authentication.
func authMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.VerifyAccessToken(token)
			if err != nil {
				// Invalid token - continue without a caller (handler will reject if auth required)
				next.ServeHTTP(w, r)
				return
			}

			ctx := withPrincipal(r.Context(), Principal{
				UserID:  claims.UserID,
				Email:   claims.Email,
				IsAdmin: claims.IsAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin validates the caller is authenticated and is an admin.
// The admin flag is re-read from the store so a demoted user loses access
// before their token expires.
func (s *Server) RequireAdmin(ctx context.Context) (int64, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return 0, err
	}

	user, err := s.services.Users.GetUser(ctx, userID)
	if err != nil {
		return 0, huma.Error401Unauthorized("User not found")
	}

	if !user.IsAdmin || !user.Active {
		return 0, domainerrors.Forbidden("Admin access required")
	}

	return userID, nil
}
