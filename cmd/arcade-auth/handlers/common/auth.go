package common

import (
	"errors"
	"net/http"

	"github.com/wrale/arcade-auth/internal/auth"
)

// RequireAuth verifies the bearer token and attaches the caller to the
// request context. Failures answer 401 without reaching next.
func RequireAuth(v auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, http.StatusUnauthorized, MsgNoToken)
				return
			}

			id, err := v.Verify(token)
			if err != nil {
				msg := MsgInvalidToken
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = MsgTokenExpired
				}
				WriteError(w, http.StatusUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id, token)))
		})
	}
}

// Caller returns the identity attached by RequireAuth.
func Caller(r *http.Request) (auth.Identity, string, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return auth.Identity{}, "", false
	}
	token, _ := auth.TokenFromContext(r.Context())
	return id, token, true
}
