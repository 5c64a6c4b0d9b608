package integration

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/wrale/arcade-auth/internal/validation"
	"github.com/wrale/arcade-auth/pkg/client"
)

func validateDeviceAuthorization(t *testing.T, a *client.DeviceAuthorization) {
	t.Helper()

	var issues []string
	if a.DeviceCode == "" {
		issues = append(issues, "deviceCode is empty")
	}
	if err := validation.ValidateUserCode(a.UserCode); err != nil {
		issues = append(issues, "userCode: "+err.Error())
	}
	if a.VerificationURI == "" {
		issues = append(issues, "verificationUri is empty")
	}
	if a.VerificationURIComplete != "" && !strings.Contains(a.VerificationURIComplete, a.UserCode) {
		issues = append(issues, "verificationUriComplete does not carry the user code")
	}
	if a.ExpiresIn <= 0 {
		issues = append(issues, "expiresIn must be positive")
	}
	if a.Interval <= 0 {
		issues = append(issues, "interval must be positive")
	}

	for _, issue := range issues {
		t.Error(issue)
	}
}

func validateSessionConfirmation(t *testing.T, c *client.SessionConfirmation) {
	t.Helper()

	if _, err := hex.DecodeString(c.ConfirmationCode); err != nil || len(c.ConfirmationCode) != 64 {
		t.Errorf("confirmationCode %q should be 64 hex characters", c.ConfirmationCode)
	}
	if c.ConfirmationURI == "" {
		t.Error("confirmationUri is empty")
	}
	if c.ExpiresIn <= 0 {
		t.Error("expiresIn must be positive")
	}
}
