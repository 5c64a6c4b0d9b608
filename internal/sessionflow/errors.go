package sessionflow

import "errors"

var (
	// ErrNotFound indicates the confirmation code does not exist
	ErrNotFound = errors.New("confirmation code not found")

	// ErrMismatch indicates the code is missing or belongs to another account
	ErrMismatch = errors.New("invalid or mismatched confirmation code")

	// ErrExpiredCode indicates the confirmation code has expired
	ErrExpiredCode = errors.New("confirmation code expired")

	// ErrNotPending indicates the code was already resolved the other way
	ErrNotPending = errors.New("confirmation code is no longer pending")
)
