package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgtype"
	"github.com/lukasz-zimnoch/forex"
	"github.com/shopspring/decimal"
)

type HoldingRepository struct {
	client     *Client
	transactor *LedgerTransactor
}

func NewHoldingRepository(client *Client) *HoldingRepository {
	return &HoldingRepository{client, NewLedgerTransactor(client)}
}

func (hr *HoldingRepository) Quantity(
	ctx context.Context,
	username string,
	currency forex.Currency,
) (decimal.Decimal, error) {
	var quantity pgtype.Numeric

	query := `SELECT quantity FROM holding WHERE username = $1 AND currency = $2`

	err := hr.client.instance().GetContext(
		ctx,
		&quantity,
		query,
		username,
		currency.String(),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}

		return decimal.Zero, fmt.Errorf("could not execute query: [%w]", err)
	}

	return numericToDecimal(quantity)
}

func (hr *HoldingRepository) Holdings(
	ctx context.Context,
	username string,
) ([]*forex.Holding, error) {
	var holdingRows []*holdingRow

	query := `SELECT * FROM holding WHERE username = $1 ORDER BY currency ASC`

	err := hr.client.instance().SelectContext(ctx, &holdingRows, query, username)
	if err != nil {
		return nil, fmt.Errorf(
			"could not execute query for [%v]: [%w]",
			username,
			err,
		)
	}

	holdings := make([]*forex.Holding, len(holdingRows))
	for index, row := range holdingRows {
		holding, err := row.unwrap()
		if err != nil {
			return nil, err
		}

		holdings[index] = holding
	}

	return holdings, nil
}

func (hr *HoldingRepository) AdjustQuantity(
	ctx context.Context,
	username string,
	currency forex.Currency,
	delta decimal.Decimal,
) (decimal.Decimal, error) {
	var quantity decimal.Decimal

	err := hr.transactor.Transact(ctx, username, func(tx forex.LedgerTx) error {
		var err error
		quantity, err = tx.AdjustQuantity(ctx, currency, delta)
		return err
	})

	return quantity, err
}

type holdingRow struct {
	Username string
	Currency string
	Quantity pgtype.Numeric
}

func (hr *holdingRow) unwrap() (*forex.Holding, error) {
	quantity, err := numericToDecimal(hr.Quantity)
	if err != nil {
		return nil, fmt.Errorf(
			"could not convert [%v] holding of [%v]: [%w]",
			hr.Currency,
			hr.Username,
			err,
		)
	}

	return &forex.Holding{
		Username: hr.Username,
		Currency: forex.Currency(hr.Currency),
		Quantity: quantity,
	}, nil
}
