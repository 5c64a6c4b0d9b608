package auth

import (
	"context"
	"strings"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	tokenKey
)

// WithIdentity attaches the verified caller and the raw token to ctx.
func WithIdentity(ctx context.Context, id Identity, token string) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	return context.WithValue(ctx, tokenKey, token)
}

// IdentityFromContext returns the verified caller, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// TokenFromContext returns the raw bearer token the caller presented.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey).(string)
	return tok, ok && tok != ""
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
