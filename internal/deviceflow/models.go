package deviceflow

import "github.com/wrale/arcade-auth/internal/auth"

// Authorization is returned to the game client when a link starts.
// ExpiresIn is in seconds, Interval in milliseconds.
type Authorization struct {
	DeviceCode              string `json:"deviceCode"`
	UserCode                string `json:"userCode"`
	VerificationURI         string `json:"verificationUri"`
	VerificationURIComplete string `json:"verificationUriComplete,omitempty"`
	ExpiresIn               int    `json:"expiresIn"`
	Interval                int64  `json:"interval"`
}

// TokenResult is the outcome of a resolved link.
type TokenResult struct {
	Token string        `json:"token"`
	User  auth.Identity `json:"user"`
}
