// Package validation provides input validation for account credentials and device user codes
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// User code settings
const (
	UserCodeLength = 8 // Total length excluding separator
	GroupSize      = 4 // Characters per group
	MinEntropy     = 2 // Minimum required entropy bits
)

// ValidCharset contains the allowed characters for user codes
const ValidCharset = "BCDFGHJKLMNPQRSTVWXZ" // Excludes vowels and similar-looking characters

var (
	charsetPattern = fmt.Sprintf("[%s]", ValidCharset)
	codeRegex      = regexp.MustCompile(fmt.Sprintf("^%s{%d}-%s{%d}$",
		charsetPattern, GroupSize, charsetPattern, GroupSize))
)

// ValidationError describes why an input was rejected.
// Message is safe to return to clients verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidateUserCode checks if a user code is well formed
func ValidateUserCode(code string) error {
	code = NormalizeUserCode(code)
	baseCode := strings.ReplaceAll(code, "-", "")

	if len(baseCode) != UserCodeLength {
		return &ValidationError{
			Field:   "user code",
			Message: fmt.Sprintf("length must be %d characters", UserCodeLength),
		}
	}

	if !codeRegex.MatchString(code) {
		return &ValidationError{
			Field:   "user code",
			Message: "code must be in format XXXX-XXXX using only allowed characters",
		}
	}

	// Check character distribution before entropy
	charCounts := make(map[rune]int)
	maxAllowedRepeats := (len(baseCode) / 2) + 1
	for _, char := range baseCode {
		charCounts[char]++
		if charCounts[char] > maxAllowedRepeats {
			return &ValidationError{
				Field:   "user code",
				Message: "too many repeated characters",
			}
		}
	}

	if entropy := calculateEntropy(baseCode); entropy < MinEntropy {
		return &ValidationError{
			Field:   "user code",
			Message: fmt.Sprintf("code entropy %.2f bits is below required minimum %d bits", entropy, MinEntropy),
		}
	}

	return nil
}

// calculateEntropy calculates the Shannon entropy of the code in bits
func calculateEntropy(code string) float64 {
	if code == "" {
		return 0
	}

	freqs := make(map[rune]int)
	for _, char := range code {
		freqs[char]++
	}

	length := float64(len(code))
	entropy := 0.0
	for _, count := range freqs {
		prob := float64(count) / length
		entropy -= prob * math.Log2(prob)
	}

	return entropy
}

// NormalizeCode strips separators and whitespace and upper-cases a user code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(code)))
}

// FormatCode converts a normalized code back to display format
func FormatCode(code string) string {
	if len(code) != UserCodeLength {
		return code
	}
	mid := len(code) / 2
	return code[:mid] + "-" + code[mid:]
}

// NormalizeUserCode converts user input such as "bcdf ghjk" into the display
// form the store indexes codes by.
func NormalizeUserCode(code string) string {
	return FormatCode(NormalizeCode(code))
}
