package forex

import (
	"context"

	"github.com/shopspring/decimal"
)

type HoldingRepository interface {
	// Quantity returns zero for a currency the user never held.
	Quantity(
		ctx context.Context,
		username string,
		currency Currency,
	) (decimal.Decimal, error)

	Holdings(ctx context.Context, username string) ([]*Holding, error)

	// AdjustQuantity applies a signed delta and returns the new quantity.
	// The holding is created on the first credit and kept once it drops
	// to zero.
	AdjustQuantity(
		ctx context.Context,
		username string,
		currency Currency,
		delta decimal.Decimal,
	) (decimal.Decimal, error)
}

type Holding struct {
	Username string
	Currency Currency
	Quantity decimal.Decimal
}
