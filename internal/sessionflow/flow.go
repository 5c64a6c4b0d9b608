// Package sessionflow lets an authenticated game session ask a browser
// signed in to the same account to confirm it.
package sessionflow

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"path"
	"time"

	"github.com/samber/oops"

	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/codestore"
)

const defaultConfirmationPath = "confirm-session"

// Store is the subset of the code store the session flow needs
type Store interface {
	GenerateConfirmationCode(userToken string, user auth.Identity) (codestore.ConfirmationGrant, error)
	GetConfirmationCodeInfo(code string) (codestore.ConfirmationCode, bool)
	ConfirmCode(code string) bool
	CancelCode(code string) bool
	Now() time.Time
}

var _ Store = (*codestore.Store)(nil)

// Confirmation is returned to the game when it asks for confirmation.
// The game appends ?code=<ConfirmationCode> to ConfirmationURI.
type Confirmation struct {
	ConfirmationCode string `json:"confirmationCode"`
	ExpiresIn        int    `json:"expiresIn"`
	Interval         int64  `json:"interval"`
	ConfirmationURI  string `json:"confirmationUri"`
}

// StatusResult is the observable state of a confirmation code.
type StatusResult struct {
	Status   codestore.Status `json:"status"`
	Username string           `json:"username"`
}

// Flow drives session confirmation.
type Flow struct {
	store           Store
	confirmationURI string
	logger          *slog.Logger
}

// Option configures a Flow
type Option func(*Flow)

// WithLogger sets the logger for resolution events
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFlow creates a session confirmation flow. The confirmation page is
// served under baseURL.
func NewFlow(store Store, baseURL string, opts ...Option) *Flow {
	f := &Flow{
		store:           store,
		confirmationURI: joinURL(baseURL, defaultConfirmationPath),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func joinURL(base, p string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	u.Path = path.Join("/", u.Path, p)
	return u.String()
}

// Initiate issues a confirmation code bound to the caller.
func (f *Flow) Initiate(ctx context.Context, token string, user auth.Identity) (*Confirmation, error) {
	grant, err := f.store.GenerateConfirmationCode(token, user)
	if err != nil {
		return nil, oops.Code("SESSION_INITIATE_FAILED").With("user_id", user.ID).Wrap(err)
	}
	return &Confirmation{
		ConfirmationCode: grant.Code,
		ExpiresIn:        int(grant.ExpiresIn.Seconds()),
		Interval:         grant.Interval.Milliseconds(),
		ConfirmationURI:  f.confirmationURI,
	}, nil
}

// owned returns the code when it exists and belongs to caller.
func (f *Flow) owned(code string, caller auth.Identity) (codestore.ConfirmationCode, error) {
	info, ok := f.store.GetConfirmationCodeInfo(code)
	if !ok || info.User.ID != caller.ID {
		return codestore.ConfirmationCode{}, ErrMismatch
	}
	return info, nil
}

// Confirm marks the caller's pending code confirmed. Confirming an already
// confirmed code succeeds again.
func (f *Flow) Confirm(ctx context.Context, code string, caller auth.Identity) error {
	info, err := f.owned(code, caller)
	if err != nil {
		return err
	}

	if info.Expired(f.store.Now()) {
		f.store.CancelCode(code)
		return ErrExpiredCode
	}

	switch info.Status {
	case codestore.StatusConfirmed:
		return nil
	case codestore.StatusCancelled:
		return ErrNotPending
	}

	if !f.store.ConfirmCode(code) {
		// Lost a race; report whatever won.
		if now, ok := f.store.GetConfirmationCodeInfo(code); ok && now.Status == codestore.StatusConfirmed {
			return nil
		}
		return ErrNotPending
	}

	f.logger.Info("session confirmed", "user_id", caller.ID)
	return nil
}

// Status reports the state of a code without requiring authentication.
// An expired pending code is cancelled as a side effect.
func (f *Flow) Status(ctx context.Context, code string) (*StatusResult, error) {
	info, ok := f.store.GetConfirmationCodeInfo(code)
	if !ok {
		return nil, ErrNotFound
	}

	if info.Expired(f.store.Now()) {
		f.store.CancelCode(code)
		return nil, ErrExpiredCode
	}

	return &StatusResult{Status: info.Status, Username: info.User.Username}, nil
}

// Cancel marks the caller's pending code cancelled. A confirmed code stays
// confirmed and reports ErrNotPending.
func (f *Flow) Cancel(ctx context.Context, code string, caller auth.Identity) error {
	info, err := f.owned(code, caller)
	if err != nil {
		return err
	}

	switch info.Status {
	case codestore.StatusCancelled:
		return nil
	case codestore.StatusConfirmed:
		return ErrNotPending
	}

	if !f.store.CancelCode(code) {
		if now, ok := f.store.GetConfirmationCodeInfo(code); ok && now.Status == codestore.StatusCancelled {
			return nil
		}
		return ErrNotPending
	}

	f.logger.Info("session cancelled", "user_id", caller.ID)
	return nil
}
