package forex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerTx is a view of one user's account and holdings inside a ledger
// transaction. Adjustments are staged and become visible to other callers
// only when the transaction commits.
type LedgerTx interface {
	Balance(ctx context.Context) (decimal.Decimal, error)

	AdjustBalance(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error)

	Quantity(ctx context.Context, currency Currency) (decimal.Decimal, error)

	AdjustQuantity(
		ctx context.Context,
		currency Currency,
		delta decimal.Decimal,
	) (decimal.Decimal, error)
}

// LedgerTransactor runs fn with exclusive access to the user's ledger rows.
// Everything fn changed is committed when it returns nil and discarded
// otherwise. Transactions of different users never wait on each other.
type LedgerTransactor interface {
	Transact(
		ctx context.Context,
		username string,
		fn func(tx LedgerTx) error,
	) error
}

type Ledger struct {
	rateRepository    RateRepository
	accountRepository AccountRepository
	holdingRepository HoldingRepository
	transactor        LedgerTransactor
	idService         IDService
	eventService      EventService
	logger            Logger
}

func NewLedger(
	rateRepository RateRepository,
	accountRepository AccountRepository,
	holdingRepository HoldingRepository,
	transactor LedgerTransactor,
	idService IDService,
	eventService EventService,
	logger Logger,
) *Ledger {
	return &Ledger{
		rateRepository:    rateRepository,
		accountRepository: accountRepository,
		holdingRepository: holdingRepository,
		transactor:        transactor,
		idService:         idService,
		eventService:      eventService,
		logger:            logger.WithField("component", "ledger"),
	}
}

// Buy acquires quantity units of currency, paying quantity / rate USD.
func (l *Ledger) Buy(
	ctx context.Context,
	session *Session,
	currency Currency,
	quantity decimal.Decimal,
) (*Trade, error) {
	return l.settle(ctx, session, SideBuy, currency, quantity)
}

// Sell disposes of quantity units of currency, receiving quantity / rate USD.
func (l *Ledger) Sell(
	ctx context.Context,
	session *Session,
	currency Currency,
	quantity decimal.Decimal,
) (*Trade, error) {
	return l.settle(ctx, session, SideSell, currency, quantity)
}

func (l *Ledger) Balance(
	ctx context.Context,
	session *Session,
) (decimal.Decimal, error) {
	username, err := identity(session)
	if err != nil {
		return decimal.Zero, err
	}

	return l.accountRepository.Balance(ctx, username)
}

func (l *Ledger) Portfolio(
	ctx context.Context,
	session *Session,
) (*Portfolio, error) {
	username, err := identity(session)
	if err != nil {
		return nil, err
	}

	balance, err := l.accountRepository.Balance(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("could not get balance: [%w]", err)
	}

	holdings, err := l.holdingRepository.Holdings(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("could not get holdings: [%w]", err)
	}

	return &Portfolio{
		Username: username,
		Balance:  balance,
		Holdings: holdings,
	}, nil
}

func (l *Ledger) settle(
	ctx context.Context,
	session *Session,
	side TradeSide,
	currency Currency,
	quantity decimal.Decimal,
) (*Trade, error) {
	username, err := identity(session)
	if err != nil {
		return nil, err
	}

	if !quantity.IsPositive() {
		return nil, fmt.Errorf(
			"%w: quantity [%v] must be greater than zero",
			ErrInvalidAmount,
			quantity,
		)
	}

	if currency == USD {
		return nil, fmt.Errorf(
			"%w: [%v] is the base currency",
			ErrUnknownCurrency,
			currency,
		)
	}

	rate, err := l.rateRepository.Rate(ctx, currency)
	if err != nil {
		return nil, err
	}

	if !rate.Rate.IsPositive() {
		return nil, fmt.Errorf(
			"%w: [%v] has no usable rate",
			ErrUnknownCurrency,
			currency,
		)
	}

	usdAmount := roundUSD(quantity.Div(rate.Rate))
	if !usdAmount.IsPositive() {
		return nil, fmt.Errorf(
			"%w: [%v %v] is worth less than one cent",
			ErrInvalidAmount,
			quantity,
			currency,
		)
	}

	trade := &Trade{
		ID:        l.idService.NewID(),
		Username:  username,
		Side:      side,
		Currency:  currency,
		Quantity:  quantity,
		Rate:      rate.Rate,
		USDAmount: usdAmount,
	}

	balanceDelta, quantityDelta := usdAmount.Neg(), quantity
	if side == SideSell {
		balanceDelta, quantityDelta = usdAmount, quantity.Neg()
	}

	err = l.transactor.Transact(ctx, username, func(tx LedgerTx) error {
		holding, err := tx.AdjustQuantity(ctx, currency, quantityDelta)
		if err != nil {
			return err
		}

		balance, err := tx.AdjustBalance(ctx, balanceDelta)
		if err != nil {
			return err
		}

		trade.Balance = balance
		trade.Holding = holding

		return nil
	})
	if err != nil {
		if isTradeRejection(err) {
			return nil, err
		}

		return nil, fmt.Errorf(
			"could not settle %v of [%v]: [%w]",
			side,
			currency,
			err,
		)
	}

	trade.Time = time.Now()

	l.logger.WithFields(map[string]interface{}{
		"username": username,
		"currency": currency.String(),
		"side":     side.String(),
	}).Infof("settled trade [%v]", trade.ID)

	l.eventService.Publish(NewTradeSettledEvent(trade))

	return trade, nil
}

func isTradeRejection(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInsufficientHoldings) ||
		errors.Is(err, ErrAccountNotFound)
}

func identity(session *Session) (string, error) {
	username, ok := session.Identity()
	if !ok {
		return "", ErrNotAuthenticated
	}

	return username, nil
}
