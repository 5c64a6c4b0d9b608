package deviceflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/codestore"
	"github.com/wrale/arcade-auth/internal/validation"
)

var errBadCredentials = errors.New("bad credentials")

type mockAuthenticator struct {
	authenticateFunc func(ctx context.Context, username, password string) (auth.Identity, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, username, password string) (auth.Identity, error) {
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx, username, password)
	}
	return auth.Identity{ID: 7, Username: username}, nil
}

type mockIssuer struct {
	err error
}

func (m *mockIssuer) Issue(id int64, username string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-for-" + username, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestFlow(t *testing.T, authn Authenticator) (Flow, *codestore.Store, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := codestore.New(codestore.WithClock(clock.Now))
	t.Cleanup(store.Stop)
	if authn == nil {
		authn = &mockAuthenticator{}
	}
	return NewFlow(store, authn, &mockIssuer{}, "https://arcade.example.com"), store, clock
}

func TestInitiate(t *testing.T) {
	flow, store, _ := newTestFlow(t, nil)

	got, err := flow.Initiate(context.Background())
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	if len(got.DeviceCode) != 64 {
		t.Errorf("DeviceCode length = %d, want 64", len(got.DeviceCode))
	}
	if err := validation.ValidateUserCode(got.UserCode); err != nil {
		t.Errorf("UserCode %q invalid: %v", got.UserCode, err)
	}
	if got.VerificationURI != "https://arcade.example.com/device" {
		t.Errorf("VerificationURI = %q", got.VerificationURI)
	}
	if !strings.HasSuffix(got.VerificationURIComplete, "/device?code="+got.UserCode) {
		t.Errorf("VerificationURIComplete = %q", got.VerificationURIComplete)
	}
	if got.ExpiresIn != 300 {
		t.Errorf("ExpiresIn = %d, want 300", got.ExpiresIn)
	}
	if got.Interval != 5000 {
		t.Errorf("Interval = %d, want 5000", got.Interval)
	}

	info, ok := store.GetCodeInfo(got.DeviceCode)
	if !ok || info.Status != codestore.StatusPending {
		t.Errorf("stored code = %+v, %v; want pending", info, ok)
	}
}

func TestPoll(t *testing.T) {
	flow, store, clock := newTestFlow(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "empty code",
			setup:   func(t *testing.T) string { return "" },
			wantErr: ErrInvalidDeviceCode,
		},
		{
			name:    "unknown code",
			setup:   func(t *testing.T) string { return "nope" },
			wantErr: ErrInvalidDeviceCode,
		},
		{
			name: "pending",
			setup: func(t *testing.T) string {
				a, _ := flow.Initiate(ctx)
				return a.DeviceCode
			},
			wantErr: ErrPendingAuthorization,
		},
		{
			name: "expired",
			setup: func(t *testing.T) string {
				a, _ := flow.Initiate(ctx)
				clock.Advance(codestore.DefaultTTL + time.Second)
				return a.DeviceCode
			},
			wantErr: ErrExpiredCode,
		},
		{
			name: "invalidated",
			setup: func(t *testing.T) string {
				a, _ := flow.Initiate(ctx)
				store.InvalidateCode(a.DeviceCode)
				return a.DeviceCode
			},
			wantErr: ErrInvalidDeviceCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := tt.setup(t)
			_, err := flow.Poll(ctx, code)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Poll() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPoll_ExpiredThenGone(t *testing.T) {
	flow, _, clock := newTestFlow(t, nil)
	ctx := context.Background()

	a, err := flow.Initiate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(codestore.DefaultTTL)

	if _, err := flow.Poll(ctx, a.DeviceCode); !errors.Is(err, ErrExpiredCode) {
		t.Fatalf("first Poll() error = %v, want %v", err, ErrExpiredCode)
	}
	if _, err := flow.Poll(ctx, a.DeviceCode); !errors.Is(err, ErrInvalidDeviceCode) {
		t.Errorf("second Poll() error = %v, want %v", err, ErrInvalidDeviceCode)
	}
}

func TestPoll_ConsumeOnRead(t *testing.T) {
	flow, _, _ := newTestFlow(t, nil)
	ctx := context.Background()

	a, err := flow.Initiate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := flow.LoginResolve(ctx, a.UserCode, "alice", "password123"); err != nil {
		t.Fatalf("LoginResolve() error = %v", err)
	}

	got, err := flow.Poll(ctx, a.DeviceCode)
	if err != nil {
		t.Fatalf("first Poll() error = %v", err)
	}
	if got.Token != "token-for-alice" || got.User.Username != "alice" {
		t.Errorf("first Poll() = %+v", got)
	}

	if _, err := flow.Poll(ctx, a.DeviceCode); !errors.Is(err, ErrInvalidDeviceCode) {
		t.Errorf("second Poll() error = %v, want %v", err, ErrInvalidDeviceCode)
	}
}

func TestLoginResolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		authn    Authenticator
		userCode func(a *Authorization) string
		username string
		password string
		wantErr  error
		wantVErr bool
	}{
		{
			name:     "success with lower case code",
			userCode: func(a *Authorization) string { return strings.ToLower(a.UserCode) },
			username: "alice",
			password: "password123",
		},
		{
			name:     "invalid username",
			userCode: func(a *Authorization) string { return a.UserCode },
			username: "a",
			password: "password123",
			wantVErr: true,
		},
		{
			name:     "short password",
			userCode: func(a *Authorization) string { return a.UserCode },
			username: "alice",
			password: "short",
			wantVErr: true,
		},
		{
			name:     "unknown user code",
			userCode: func(a *Authorization) string { return "BCDF-GHJK" },
			username: "alice",
			password: "password123",
			wantErr:  ErrInvalidUserCode,
		},
		{
			name: "wrong password",
			authn: &mockAuthenticator{authenticateFunc: func(ctx context.Context, u, p string) (auth.Identity, error) {
				return auth.Identity{}, errBadCredentials
			}},
			userCode: func(a *Authorization) string { return a.UserCode },
			username: "alice",
			password: "password123",
			wantErr:  errBadCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow, store, _ := newTestFlow(t, tt.authn)
			a, err := flow.Initiate(ctx)
			if err != nil {
				t.Fatal(err)
			}

			got, err := flow.LoginResolve(ctx, tt.userCode(a), tt.username, tt.password)

			if tt.wantVErr {
				var verr *validation.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("LoginResolve() error = %v, want ValidationError", err)
				}
			} else if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoginResolve() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("LoginResolve() error = %v", err)
				}
				if got.Token == "" || got.User.Username != tt.username {
					t.Errorf("LoginResolve() = %+v", got)
				}
			}

			info, _ := store.GetCodeInfo(a.DeviceCode)
			wantStatus := codestore.StatusPending
			if err == nil {
				wantStatus = codestore.StatusCompleted
			}
			if info.Status != wantStatus {
				t.Errorf("code status = %v, want %v", info.Status, wantStatus)
			}
		})
	}
}

func TestLoginResolve_AlreadyCompleted(t *testing.T) {
	flow, _, _ := newTestFlow(t, nil)
	ctx := context.Background()

	a, _ := flow.Initiate(ctx)
	if err := flow.ConnectResolve(ctx, a.UserCode, "first", auth.Identity{ID: 1, Username: "first"}); err != nil {
		t.Fatalf("ConnectResolve() error = %v", err)
	}

	if _, err := flow.LoginResolve(ctx, a.UserCode, "second", "password123"); !errors.Is(err, ErrInvalidUserCode) {
		t.Errorf("LoginResolve() error = %v, want %v", err, ErrInvalidUserCode)
	}

	got, err := flow.Poll(ctx, a.DeviceCode)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if got.Token != "first" {
		t.Errorf("Poll() token = %q, want first resolver's token", got.Token)
	}
}

func TestLoginResolve_IssueFailure(t *testing.T) {
	clock := &testClock{now: time.Now()}
	store := codestore.New(codestore.WithClock(clock.Now))
	defer store.Stop()
	flow := NewFlow(store, &mockAuthenticator{}, &mockIssuer{err: errors.New("boom")}, "http://localhost")

	a, _ := flow.Initiate(context.Background())
	if _, err := flow.LoginResolve(context.Background(), a.UserCode, "alice", "password123"); err == nil {
		t.Fatal("LoginResolve() expected error")
	}
	info, _ := store.GetCodeInfo(a.DeviceCode)
	if info.Status != codestore.StatusPending {
		t.Errorf("code status = %v, want pending", info.Status)
	}
}

func TestLoginResolve_ExpiresDuringLogin(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := codestore.New(codestore.WithClock(clock.Now))
	defer store.Stop()

	slowAuth := &mockAuthenticator{authenticateFunc: func(ctx context.Context, u, p string) (auth.Identity, error) {
		clock.Advance(codestore.DefaultTTL)
		return auth.Identity{ID: 7, Username: u}, nil
	}}
	flow := NewFlow(store, slowAuth, &mockIssuer{}, "http://localhost")

	a, err := flow.Initiate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := flow.LoginResolve(context.Background(), a.UserCode, "alice", "password123"); !errors.Is(err, ErrInvalidUserCode) {
		t.Errorf("LoginResolve() error = %v, want %v", err, ErrInvalidUserCode)
	}

	if _, err := flow.Poll(context.Background(), a.DeviceCode); !errors.Is(err, ErrExpiredCode) {
		t.Errorf("Poll() error = %v, want %v", err, ErrExpiredCode)
	}
}

func TestConnectResolve(t *testing.T) {
	flow, _, clock := newTestFlow(t, nil)
	ctx := context.Background()
	user := auth.Identity{ID: 3, Username: "carol"}

	a, _ := flow.Initiate(ctx)
	if err := flow.ConnectResolve(ctx, a.UserCode, "carol-token", user); err != nil {
		t.Fatalf("ConnectResolve() error = %v", err)
	}
	if err := flow.ConnectResolve(ctx, a.UserCode, "carol-token", user); !errors.Is(err, ErrInvalidUserCode) {
		t.Errorf("second ConnectResolve() error = %v, want %v", err, ErrInvalidUserCode)
	}

	got, err := flow.Poll(ctx, a.DeviceCode)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if got.Token != "carol-token" || got.User != user {
		t.Errorf("Poll() = %+v", got)
	}

	expired, _ := flow.Initiate(ctx)
	clock.Advance(codestore.DefaultTTL)
	if err := flow.ConnectResolve(ctx, expired.UserCode, "t", user); !errors.Is(err, ErrInvalidUserCode) {
		t.Errorf("ConnectResolve() on expired code error = %v, want %v", err, ErrInvalidUserCode)
	}
}

func TestBuildVerificationURIs(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		userCode     string
		wantURI      string
		wantComplete string
	}{
		{
			name:         "plain host",
			baseURL:      "https://arcade.example.com",
			userCode:     "BCDF-GHJK",
			wantURI:      "https://arcade.example.com/device",
			wantComplete: "https://arcade.example.com/device?code=BCDF-GHJK",
		},
		{
			name:         "base path",
			baseURL:      "https://example.com/arcade/",
			userCode:     "BCDF-GHJK",
			wantURI:      "https://example.com/arcade/device",
			wantComplete: "https://example.com/arcade/device?code=BCDF-GHJK",
		},
		{
			name:     "invalid code gets no complete uri",
			baseURL:  "https://arcade.example.com",
			userCode: "AAAA",
			wantURI:  "https://arcade.example.com/device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &flowImpl{baseURL: tt.baseURL, verificationPath: defaultVerificationPath}
			uri, complete := f.buildVerificationURIs(tt.userCode)
			if uri != tt.wantURI {
				t.Errorf("verification uri = %q, want %q", uri, tt.wantURI)
			}
			if complete != tt.wantComplete {
				t.Errorf("complete uri = %q, want %q", complete, tt.wantComplete)
			}
		})
	}
}
