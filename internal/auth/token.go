package auth

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the lifetime of issued session tokens.
const DefaultTokenTTL = time.Hour

const issuer = "arcade-auth"

var (
	// ErrMissingSigningKey is returned when no signing secret is configured
	ErrMissingSigningKey = errors.New("token signing key is not configured")

	// ErrTokenExpired indicates a well-formed token past its expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid covers malformed tokens, bad signatures and unexpected algorithms
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the JWT payload.
type Claims struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	jwtlib.RegisteredClaims
}

// Verifier validates bearer tokens.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a token service. An empty secret is a startup error.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSigningKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}, nil
}

// TTL reports the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the given account.
func (s *TokenService) Issue(id int64, username string) (string, error) {
	now := s.now()
	claims := Claims{
		ID:       id,
		Username: username,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("user_id", id).Wrap(err)
	}
	return signed, nil
}

// Verify parses a token and returns the identity it carries. Failures are
// reported as ErrTokenExpired or ErrTokenInvalid.
func (s *TokenService) Verify(token string) (Identity, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{ID: claims.ID, Username: claims.Username}, nil
}
