package forex

import (
	"fmt"
	"regexp"
	"strings"
)

// USD is the base currency. Every rate is expressed per one USD and every
// conversion routes through it.
const USD Currency = "USD"

var currencyPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

type Currency string

// ParseCurrency normalizes a currency code and checks its shape. It does not
// check whether a rate is known for the currency.
func ParseCurrency(value string) (Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(value))

	if !currencyPattern.MatchString(code) {
		return "", fmt.Errorf("%w: malformed code [%v]", ErrUnknownCurrency, value)
	}

	return Currency(code), nil
}

func (c Currency) String() string {
	return string(c)
}
