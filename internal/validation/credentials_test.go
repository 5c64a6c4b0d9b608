package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantMsg  string
	}{
		{name: "valid", username: "player_1", password: "hunter2hunter2"},
		{name: "shortest username", username: "abc", password: "12345678"},
		{name: "longest username", username: strings.Repeat("a", 24), password: "12345678"},
		{name: "username too short", username: "ab", password: "12345678", wantMsg: UsernameMessage},
		{name: "username too long", username: strings.Repeat("a", 25), password: "12345678", wantMsg: UsernameMessage},
		{name: "username with dash", username: "bad-name", password: "12345678", wantMsg: UsernameMessage},
		{name: "empty username", username: "", password: "12345678", wantMsg: UsernameMessage},
		{name: "password too short", username: "player", password: "1234567", wantMsg: PasswordMessage},
		{name: "password too long", username: "player", password: strings.Repeat("x", 65), wantMsg: PasswordMessage},
		{name: "longest password", username: "player", password: strings.Repeat("x", 64)},
		{name: "multibyte password counted in runes", username: "player", password: strings.Repeat("é", 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.username, tt.password)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("ValidateCredentials() unexpected error = %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateCredentials() error = %v, want *ValidationError", err)
			}
			if verr.Message != tt.wantMsg {
				t.Errorf("ValidateCredentials() message = %q, want %q", verr.Message, tt.wantMsg)
			}
		})
	}
}
