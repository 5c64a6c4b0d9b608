package deviceflow

import "errors"

// Errors returned by the device-link flow
var (
	// ErrInvalidDeviceCode indicates a missing, unknown or already consumed device code
	ErrInvalidDeviceCode = errors.New("invalid device code")

	// ErrInvalidUserCode indicates a user code that matches no pending, unexpired device code
	ErrInvalidUserCode = errors.New("invalid user code")

	// ErrPendingAuthorization indicates user authorization is not yet complete
	ErrPendingAuthorization = errors.New("authorization pending")

	// ErrExpiredCode indicates the device code has expired
	ErrExpiredCode = errors.New("code expired")
)
