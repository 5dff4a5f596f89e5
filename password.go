package forex

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	passwordSymbols   = `!@#$%^&*(),.?":{}|<>`
)

type PasswordHasher interface {
	Hash(password string) ([]byte, error)

	// Compare returns nil only when password produced hash.
	Compare(hash []byte, password string) error
}

// ValidatePassword enforces the registration policy: at least eight
// characters including a lowercase letter, an uppercase letter, a digit
// and one of the symbols !@#$%^&*(),.?":{}|<>.
func ValidatePassword(password string) error {
	var missing []string

	if utf8.RuneCountInString(password) < minPasswordLength {
		missing = append(
			missing,
			fmt.Sprintf("at least %v characters", minPasswordLength),
		)
	}

	if !strings.ContainsFunc(password, unicode.IsLower) {
		missing = append(missing, "a lowercase letter")
	}

	if !strings.ContainsFunc(password, unicode.IsUpper) {
		missing = append(missing, "an uppercase letter")
	}

	if !strings.ContainsFunc(password, unicode.IsDigit) {
		missing = append(missing, "a digit")
	}

	if !strings.ContainsAny(password, passwordSymbols) {
		missing = append(missing, "a symbol")
	}

	if len(missing) > 0 {
		return fmt.Errorf(
			"%w: missing %v",
			ErrWeakPassword,
			strings.Join(missing, ", "),
		)
	}

	return nil
}
