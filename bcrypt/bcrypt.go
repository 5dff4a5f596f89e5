package bcrypt

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher salts every password individually. Comparison is
// constant-time.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher falls back to the library default cost when cost is
// out of the accepted range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &PasswordHasher{cost}
}

func (ph *PasswordHasher) Hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), ph.cost)
	if err != nil {
		return nil, fmt.Errorf("could not generate hash: [%w]", err)
	}

	return hash, nil
}

func (ph *PasswordHasher) Compare(hash []byte, password string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}
