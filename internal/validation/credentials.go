package validation

import (
	"regexp"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 64
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,24}$`)

// Messages returned to clients on rejected credentials.
const (
	UsernameMessage = "Username must be 3-24 characters (letters, numbers, underscore)."
	PasswordMessage = "Password must be 8-64 characters long."
)

// ValidateCredentials checks the shape of a username/password pair before
// any store lookup or hashing happens.
func ValidateCredentials(username, password string) error {
	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "username", Message: UsernameMessage}
	}
	if n := utf8.RuneCountInString(password); n < MinPasswordLength || n > MaxPasswordLength {
		return &ValidationError{Field: "password", Message: PasswordMessage}
	}
	return nil
}
