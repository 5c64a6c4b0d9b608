package deviceflow

import (
	"context"

	"github.com/samber/oops"

	"github.com/wrale/arcade-auth/internal/auth"
	"github.com/wrale/arcade-auth/internal/validation"
)

// LoginResolve validates credentials, finds the pending code, authenticates
// and then completes the code with a freshly issued token. Hashing and
// signing happen before the store is touched again.
func (f *flowImpl) LoginResolve(ctx context.Context, userCode, username, password string) (*TokenResult, error) {
	if err := validation.ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	code, ok := f.store.FindByUserCode(userCode)
	if !ok {
		return nil, ErrInvalidUserCode
	}

	user, err := f.accounts.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, err := f.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, oops.Code("DEVICE_LOGIN_FAILED").With("user_id", user.ID).Wrap(err)
	}

	if !f.store.CompleteCode(code.DeviceCode, token, user) {
		return nil, ErrInvalidUserCode
	}

	f.logger.Info("device linked", "method", "login", "user_id", user.ID)
	return &TokenResult{Token: token, User: user}, nil
}

// ConnectResolve completes the code with the caller's existing session token.
func (f *flowImpl) ConnectResolve(ctx context.Context, userCode, token string, user auth.Identity) error {
	code, ok := f.store.FindByUserCode(userCode)
	if !ok {
		return ErrInvalidUserCode
	}

	if !f.store.CompleteCode(code.DeviceCode, token, user) {
		return ErrInvalidUserCode
	}

	f.logger.Info("device linked", "method", "connect", "user_id", user.ID)
	return nil
}
