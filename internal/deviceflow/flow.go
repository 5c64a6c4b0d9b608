// Package deviceflow links a game client to an account through a short user
// code entered on the web.
package deviceflow

import (
	"context"
	"io"
	"log/slog"

	"github.com/samber/oops"

	"github.com/wrale/arcade-auth/internal/auth"
)

const defaultVerificationPath = "device"

// Flow is the device-link state machine:
// pending -> completed (login or connect) -> invalidated (first successful poll) -> swept.
type Flow interface {
	// Initiate issues a new device code and user code
	Initiate(ctx context.Context) (*Authorization, error)

	// Poll reports the state of a device code, handing out the token exactly once
	Poll(ctx context.Context, deviceCode string) (*TokenResult, error)

	// LoginResolve completes a link with a username and password
	LoginResolve(ctx context.Context, userCode, username, password string) (*TokenResult, error)

	// ConnectResolve completes a link with an already authenticated session
	ConnectResolve(ctx context.Context, userCode, token string, user auth.Identity) error

	// CheckHealth verifies the backing store is available
	CheckHealth(ctx context.Context) error
}

type flowImpl struct {
	store            Store
	accounts         Authenticator
	tokens           TokenIssuer
	baseURL          string
	verificationPath string
	logger           *slog.Logger
}

// NewFlow creates a device flow backed by store
func NewFlow(store Store, accounts Authenticator, tokens TokenIssuer, baseURL string, opts ...Option) Flow {
	f := &flowImpl{
		store:            store,
		accounts:         accounts,
		tokens:           tokens,
		baseURL:          baseURL,
		verificationPath: defaultVerificationPath,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *flowImpl) Initiate(ctx context.Context) (*Authorization, error) {
	grant, err := f.store.GenerateDeviceCode()
	if err != nil {
		return nil, oops.Code("DEVICE_INITIATE_FAILED").Wrap(err)
	}

	verificationURI, verificationURIComplete := f.buildVerificationURIs(grant.UserCode)

	return &Authorization{
		DeviceCode:              grant.DeviceCode,
		UserCode:                grant.UserCode,
		VerificationURI:         verificationURI,
		VerificationURIComplete: verificationURIComplete,
		ExpiresIn:               int(grant.ExpiresIn.Seconds()),
		Interval:                grant.Interval.Milliseconds(),
	}, nil
}

func (f *flowImpl) CheckHealth(ctx context.Context) error {
	return f.store.CheckHealth(ctx)
}
