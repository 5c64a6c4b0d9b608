package deviceflow

import (
	"context"

	"github.com/wrale/arcade-auth/internal/codestore"
)

// Poll checks a device code in this order: unknown or consumed, expired,
// pending, completed. A completed code is invalidated as it is returned,
// so a second poll cannot replay the token.
func (f *flowImpl) Poll(ctx context.Context, deviceCode string) (*TokenResult, error) {
	if deviceCode == "" {
		return nil, ErrInvalidDeviceCode
	}

	code, ok := f.store.GetCodeInfo(deviceCode)
	if !ok || code.Status == codestore.StatusInvalidated {
		return nil, ErrInvalidDeviceCode
	}

	if code.Expired(f.store.Now()) {
		f.store.InvalidateCode(deviceCode)
		return nil, ErrExpiredCode
	}

	switch code.Status {
	case codestore.StatusPending:
		return nil, ErrPendingAuthorization
	case codestore.StatusCompleted:
		// Only the caller that wins the invalidation gets the token.
		if !f.store.InvalidateCode(deviceCode) || code.User == nil {
			return nil, ErrInvalidDeviceCode
		}
		f.logger.Info("device code consumed", "user_id", code.User.ID)
		return &TokenResult{Token: code.Token, User: *code.User}, nil
	default:
		return nil, ErrInvalidDeviceCode
	}
}
