package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/information-sharing-networks/apitest/hydra"
	"github.com/information-sharing-networks/apitest/internal/logger"
)

type claimsContextKey struct{}

// ContextWithClaims stores the authenticated user's claims in the context.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok && claims != nil
}

// SessionCookies returns the jwt_hp and jwt_s cookies carrying a token.
func SessionCookies(token string, secure bool) ([]*http.Cookie, error) {
	headerPayload, signature, err := SplitToken(token)
	if err != nil {
		return nil, err
	}
	return []*http.Cookie{
		{
			Name:     CookieHeaderPayload,
			Value:    headerPayload,
			Path:     "/",
			Secure:   secure,
			SameSite: http.SameSiteStrictMode,
		},
		{
			Name:     CookieSignature,
			Value:    signature,
			Path:     "/",
			Secure:   secure,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		},
	}, nil
}

// TokenFromRequest returns the session token of a request:
// the jwt_hp and jwt_s cookies joined, or the bearer token of the Authorization header.
func TokenFromRequest(r *http.Request) (string, bool) {
	hp, hpErr := r.Cookie(CookieHeaderPayload)
	s, sErr := r.Cookie(CookieSignature)
	if hpErr == nil && sErr == nil {
		if token, err := JoinToken(hp.Value, s.Value); err == nil {
			return token, true
		}
	}

	authorization := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(authorization, " "); ok && strings.EqualFold(scheme, "Bearer") && token != "" {
		return strings.TrimSpace(token), true
	}

	return "", false
}

// Middleware authenticates requests carrying a session token.
//
// Requests without a token continue anonymously; requests with an invalid or expired token are rejected with 401.
// Use RequireUser on routes that need an authenticated user.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := TokenFromRequest(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.Verify(r.Context(), token)
			if err != nil {
				reqLogger := logger.ContextRequestLogger(r.Context())
				reqLogger.Debug("session token rejected",
					slog.String("component", "auth"),
					slog.String("error", err.Error()),
				)
				hydra.RespondWithErrorResponse(w, r, hydra.WrapUnauthorizedError(err, "Invalid session token."))
				return
			}

			// Add context for final request log
			logger.ContextWithLogAttrs(r.Context(),
				slog.String("user", claims.Username),
			)

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			hydra.RespondWithErrorResponse(w, r, hydra.NewUnauthorizedError("Full authentication is required to access this resource."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose user lacks the role with 403 (401 when anonymous).
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			if !claims.HasRole(role) {
				hydra.RespondWithErrorResponse(w, r, hydra.NewForbiddenError("Access Denied."))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
