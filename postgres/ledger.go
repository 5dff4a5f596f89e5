package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgtype"
	"github.com/jmoiron/sqlx"
	"github.com/lukasz-zimnoch/forex"
	"github.com/shopspring/decimal"
)

// LedgerTransactor runs ledger transactions in a single SQL transaction.
// The account row is locked first, which serializes all ledger work of the
// user while leaving other users untouched.
type LedgerTransactor struct {
	client *Client
}

func NewLedgerTransactor(client *Client) *LedgerTransactor {
	return &LedgerTransactor{client}
}

func (lt *LedgerTransactor) Transact(
	ctx context.Context,
	username string,
	fn func(tx forex.LedgerTx) error,
) error {
	tx, err := lt.client.instance().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: [%w]", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var balance pgtype.Numeric

	err = tx.GetContext(
		ctx,
		&balance,
		`SELECT balance FROM account WHERE username = $1 FOR UPDATE`,
		username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: [%v]", forex.ErrAccountNotFound, username)
		}

		return fmt.Errorf("could not lock account [%v]: [%w]", username, err)
	}

	balanceValue, err := numericToDecimal(balance)
	if err != nil {
		return fmt.Errorf("could not convert balance: [%w]", err)
	}

	if err := fn(&ledgerTx{tx, username, balanceValue}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: [%w]", err)
	}

	committed = true

	return nil
}

type ledgerTx struct {
	tx       *sqlx.Tx
	username string
	balance  decimal.Decimal
}

func (lt *ledgerTx) Balance(_ context.Context) (decimal.Decimal, error) {
	return lt.balance, nil
}

func (lt *ledgerTx) AdjustBalance(
	ctx context.Context,
	delta decimal.Decimal,
) (decimal.Decimal, error) {
	balance := lt.balance.Add(delta)
	if balance.IsNegative() {
		return decimal.Zero, fmt.Errorf(
			"%w: need [%v] USD, available [%v]",
			forex.ErrInsufficientFunds,
			delta.Neg(),
			lt.balance,
		)
	}

	_, err := lt.tx.ExecContext(
		ctx,
		`UPDATE account SET balance = $1 WHERE username = $2`,
		decimalToNumeric(balance),
		lt.username,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf(
			"could not update balance of [%v]: [%w]",
			lt.username,
			err,
		)
	}

	lt.balance = balance

	return balance, nil
}

func (lt *ledgerTx) Quantity(
	ctx context.Context,
	currency forex.Currency,
) (decimal.Decimal, error) {
	quantity, _, err := lt.quantity(ctx, currency)
	return quantity, err
}

func (lt *ledgerTx) AdjustQuantity(
	ctx context.Context,
	currency forex.Currency,
	delta decimal.Decimal,
) (decimal.Decimal, error) {
	current, exists, err := lt.quantity(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}

	quantity := current.Add(delta)
	if quantity.IsNegative() {
		return decimal.Zero, fmt.Errorf(
			"%w: need [%v] %v, available [%v]",
			forex.ErrInsufficientHoldings,
			delta.Neg(),
			currency,
			current,
		)
	}

	if !exists && !delta.IsPositive() {
		return quantity, nil
	}

	_, err = lt.tx.ExecContext(
		ctx,
		`INSERT INTO holding (username, currency, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (username, currency) DO UPDATE 
		SET quantity = EXCLUDED.quantity`,
		lt.username,
		currency.String(),
		decimalToNumeric(quantity),
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf(
			"could not update [%v] holding of [%v]: [%w]",
			currency,
			lt.username,
			err,
		)
	}

	return quantity, nil
}

func (lt *ledgerTx) quantity(
	ctx context.Context,
	currency forex.Currency,
) (decimal.Decimal, bool, error) {
	var quantity pgtype.Numeric

	err := lt.tx.GetContext(
		ctx,
		&quantity,
		`SELECT quantity FROM holding 
		WHERE username = $1 AND currency = $2 FOR UPDATE`,
		lt.username,
		currency.String(),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, false, nil
		}

		return decimal.Zero, false, fmt.Errorf(
			"could not get [%v] holding of [%v]: [%w]",
			currency,
			lt.username,
			err,
		)
	}

	value, err := numericToDecimal(quantity)
	if err != nil {
		return decimal.Zero, false, err
	}

	return value, true, nil
}
