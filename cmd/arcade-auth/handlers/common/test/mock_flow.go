// Package test provides doubles shared by handler tests.
package test

import (
	"context"

	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/deviceflow"
)

// MockFlow provides a full implementation of deviceflow.Flow for testing
type MockFlow struct {
	InitiateFunc       func(ctx context.Context) (*deviceflow.Authorization, error)
	PollFunc           func(ctx context.Context, deviceCode string) (*deviceflow.TokenResult, error)
	LoginResolveFunc   func(ctx context.Context, userCode, username, password string) (*deviceflow.TokenResult, error)
	ConnectResolveFunc func(ctx context.Context, userCode, token string, user auth.Identity) error
	CheckHealthFunc    func(ctx context.Context) error
}

// Ensure MockFlow implements Flow interface
var _ deviceflow.Flow = (*MockFlow)(nil)

// Initiate implements deviceflow.Flow
func (m *MockFlow) Initiate(ctx context.Context) (*deviceflow.Authorization, error) {
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx)
	}
	return nil, nil
}

// Poll implements deviceflow.Flow
func (m *MockFlow) Poll(ctx context.Context, deviceCode string) (*deviceflow.TokenResult, error) {
	if m.PollFunc != nil {
		return m.PollFunc(ctx, deviceCode)
	}
	return nil, deviceflow.ErrPendingAuthorization
}

// LoginResolve implements deviceflow.Flow
func (m *MockFlow) LoginResolve(ctx context.Context, userCode, username, password string) (*deviceflow.TokenResult, error) {
	if m.LoginResolveFunc != nil {
		return m.LoginResolveFunc(ctx, userCode, username, password)
	}
	return nil, nil
}

// ConnectResolve implements deviceflow.Flow
func (m *MockFlow) ConnectResolve(ctx context.Context, userCode, token string, user auth.Identity) error {
	if m.ConnectResolveFunc != nil {
		return m.ConnectResolveFunc(ctx, userCode, token, user)
	}
	return nil
}

// CheckHealth implements deviceflow.Flow
func (m *MockFlow) CheckHealth(ctx context.Context) error {
	if m.CheckHealthFunc != nil {
		return m.CheckHealthFunc(ctx)
	}
	return nil
}

// StaticVerifier accepts exactly one token.
type StaticVerifier struct {
	Token    string
	Identity auth.Identity
	Err      error
}

// Verify implements auth.Verifier
func (v StaticVerifier) Verify(token string) (auth.Identity, error) {
	if v.Err != nil {
		return auth.Identity{}, v.Err
	}
	if token != v.Token {
		return auth.Identity{}, auth.ErrTokenInvalid
	}
	return v.Identity, nil
}

// TokenMap verifies tokens by lookup.
type TokenMap map[string]auth.Identity

// Verify implements auth.Verifier
func (m TokenMap) Verify(token string) (auth.Identity, error) {
	id, ok := m[token]
	if !ok {
		return auth.Identity{}, auth.ErrTokenInvalid
	}
	return id, nil
}
