package forex

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TradeSide int

const (
	SideBuy TradeSide = iota
	SideSell
)

func ParseTradeSide(value string) (TradeSide, error) {
	switch value {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	}

	return -1, fmt.Errorf("unknown trade side: [%v]", value)
}

func (ts TradeSide) String() string {
	switch ts {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		panic("unknown trade side")
	}
}

// Trade is the receipt of a settled conversion. Balance and Holding hold the
// post-trade positions of the user.
type Trade struct {
	ID        ID
	Username  string
	Side      TradeSide
	Currency  Currency
	Quantity  decimal.Decimal
	Rate      decimal.Decimal
	USDAmount decimal.Decimal
	Balance   decimal.Decimal
	Holding   decimal.Decimal
	Time      time.Time
}

func (t *Trade) String() string {
	verb := "Bought"
	if t.Side == SideSell {
		verb = "Sold"
	}

	return fmt.Sprintf(
		"%v %v %v for %v USD",
		verb,
		t.Quantity.String(),
		t.Currency,
		t.USDAmount.StringFixed(usdPlaces),
	)
}

type Portfolio struct {
	Username string
	Balance  decimal.Decimal
	Holdings []*Holding
}
