package forex

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AccountRepository holds credentials and USD balances. Balance mutations
// for a single username are serialized.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *Account) error

	Account(ctx context.Context, username string) (*Account, error)

	Balance(ctx context.Context, username string) (decimal.Decimal, error)

	// AdjustBalance applies a signed delta and returns the new balance.
	// A debit that would take the balance below zero fails with
	// ErrInsufficientFunds and leaves the balance unchanged.
	AdjustBalance(
		ctx context.Context,
		username string,
		delta decimal.Decimal,
	) (decimal.Decimal, error)
}

type Account struct {
	Username     string
	PasswordHash []byte
	Balance      decimal.Decimal
	CreatedAt    time.Time
}
