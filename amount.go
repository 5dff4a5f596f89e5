package forex

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// usdPlaces is the precision USD amounts are settled with.
const usdPlaces = 2

// ParseAmount strictly parses a user supplied quantity. Only plain positive
// decimal numbers are accepted.
func ParseAmount(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}

	// decimal accepts exponent notation; the trading form does not.
	if strings.ContainsAny(trimmed, "eE") {
		return decimal.Zero, fmt.Errorf(
			"%w: [%v] is not a plain decimal number",
			ErrInvalidAmount,
			value,
		)
	}

	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf(
			"%w: [%v] is not a number",
			ErrInvalidAmount,
			value,
		)
	}

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf(
			"%w: [%v] must be greater than zero",
			ErrInvalidAmount,
			value,
		)
	}

	return amount, nil
}

func roundUSD(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(usdPlaces)
}
