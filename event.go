package forex

import (
	"fmt"
)

type Event struct {
	Username string
	Subject  string
	Payload  string
}

func NewTradeSettledEvent(trade *Trade) *Event {
	return &Event{
		Username: trade.Username,
		Subject:  fmt.Sprintf("%v %v settled", trade.Side, trade.Currency),
		Payload: fmt.Sprintf(
			"Trade has been settled:\n"+
				"- ID: %v\n"+
				"- Side: %v\n"+
				"- Currency: %v\n"+
				"- Quantity: %v\n"+
				"- Rate per USD: %v\n"+
				"- USD amount: %v\n"+
				"- USD balance: %v\n"+
				"- %v holding: %v",
			trade.ID.String(),
			trade.Side.String(),
			trade.Currency,
			trade.Quantity.String(),
			trade.Rate.String(),
			trade.USDAmount.StringFixed(usdPlaces),
			trade.Balance.StringFixed(usdPlaces),
			trade.Currency,
			trade.Holding.String(),
		),
	}
}

// EventService delivers notifications. Publish must not block the caller on
// delivery.
type EventService interface {
	Publish(event *Event)
}
