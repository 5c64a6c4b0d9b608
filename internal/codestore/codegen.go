package codestore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/wrale/arcade-auth/internal/validation"
)

// secretCodeBytes is the entropy of device and confirmation codes (64 hex chars).
const secretCodeBytes = 32

// generateSecureCode returns length random bytes, hex encoded
func generateSecureCode(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// selectRandomChar selects a random character from available set without modulo bias
func selectRandomChar(available []rune) (rune, error) {
	availLen := len(available)
	maxNeeded := 256 - (256 % availLen)

	b := make([]byte, 1)
	for {
		if _, err := rand.Read(b); err != nil {
			return 0, fmt.Errorf("generating random byte: %w", err)
		}

		// Reject values that would cause modulo bias
		if int(b[0]) >= maxNeeded {
			continue
		}

		return available[int(b[0])%availLen], nil
	}
}

// generateUserCode builds a XXXX-XXXX code from the unambiguous charset,
// with no character used more than twice.
func generateUserCode() (string, error) {
	const maxAttempts = 100
	charset := []rune(validation.ValidCharset)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var builder strings.Builder
		freqs := make(map[rune]int)

		for group := 0; group < 2; group++ {
			if group > 0 {
				builder.WriteRune('-')
			}

			for i := 0; i < validation.GroupSize; i++ {
				var available []rune
				for _, c := range charset {
					if freqs[c] < 2 {
						available = append(available, c)
					}
				}

				char, err := selectRandomChar(available)
				if err != nil {
					return "", err
				}

				builder.WriteRune(char)
				freqs[char]++
			}
		}

		code := builder.String()
		if err := validation.ValidateUserCode(code); err == nil {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate valid code after %d attempts", maxAttempts)
}
