// Package auth issues and verifies session tokens, hashes passwords and
// carries the authenticated caller through request contexts.
package auth

// Identity is the public view of an account carried inside tokens and
// attached to completed device codes.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
