// Package accounts registers players and checks their credentials.
package accounts

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/store"
	"github.com/wrale/arcade-auth/internal/validation"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUsernameTaken indicates the requested username is already registered
	ErrUsernameTaken = errors.New("username already taken")
)

// UserStore is the subset of store.Store used for accounts
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (store.User, error)
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
}

// Session is the result of a successful login.
type Session struct {
	Token string        `json:"token"`
	User  auth.Identity `json:"user"`
}

// Service implements registration and authentication.
type Service struct {
	users  UserStore
	hasher auth.PasswordHasher
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewService builds an account service. A nil logger discards output.
func NewService(users UserStore, hasher auth.PasswordHasher, tokens *auth.TokenService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// Register creates an account after validating the credentials.
func (s *Service) Register(ctx context.Context, username, password string) (auth.Identity, error) {
	if err := validation.ValidateCredentials(username, password); err != nil {
		return auth.Identity{}, err
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return auth.Identity{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return auth.Identity{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return auth.Identity{}, err
	}

	u, err := s.users.CreateUser(ctx, username, hash)
	if errors.Is(err, store.ErrUsernameTaken) {
		return auth.Identity{}, ErrUsernameTaken
	}
	if err != nil {
		return auth.Identity{}, err
	}

	s.logger.Info("account registered", "user_id", u.ID)
	return auth.Identity{ID: u.ID, Username: u.Username}, nil
}

// Authenticate verifies a username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (auth.Identity, error) {
	if err := validation.ValidateCredentials(username, password); err != nil {
		return auth.Identity{}, err
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return auth.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return auth.Identity{}, err
	}

	if err := s.hasher.Verify(password, u.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return auth.Identity{}, ErrInvalidCredentials
		}
		return auth.Identity{}, err
	}
	return auth.Identity{ID: u.ID, Username: u.Username}, nil
}

// Login authenticates and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	id, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(id.ID, id.Username)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: id}, nil
}
