package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/lukasz-zimnoch/forex"
)

type RateRepository struct {
	client *Client
}

func NewRateRepository(client *Client) *RateRepository {
	return &RateRepository{client}
}

// SaveRates upserts all rates in one transaction. Rows of currencies that
// are not part of rates stay as they are.
func (rr *RateRepository) SaveRates(
	ctx context.Context,
	rates []*forex.ExchangeRate,
) error {
	query := `INSERT INTO exchange_rate (currency, rate, updated_at)
		VALUES (:currency, :rate, :updated_at)
		ON CONFLICT (currency) DO UPDATE 
		SET rate = EXCLUDED.rate,
		    updated_at = EXCLUDED.updated_at`

	tx, err := rr.client.instance().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: [%w]", err)
	}

	for _, rate := range rates {
		_, err := tx.NamedExecContext(ctx, query, new(rateRow).wrap(rate))
		if err != nil {
			_ = tx.Rollback()

			return fmt.Errorf(
				"could not execute command for rate [%v]: [%w]",
				rate.Currency,
				err,
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit rates: [%w]", err)
	}

	return nil
}

func (rr *RateRepository) Rate(
	ctx context.Context,
	currency forex.Currency,
) (*forex.ExchangeRate, error) {
	var rateRow rateRow

	query := `SELECT * FROM exchange_rate WHERE currency = $1`

	err := rr.client.instance().GetContext(
		ctx,
		&rateRow,
		query,
		currency.String(),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: [%v]", forex.ErrUnknownCurrency, currency)
		}

		return nil, fmt.Errorf("could not execute query: [%w]", err)
	}

	return rateRow.unwrap()
}

func (rr *RateRepository) Rates(ctx context.Context) ([]*forex.ExchangeRate, error) {
	var rateRows []*rateRow

	query := `SELECT * FROM exchange_rate ORDER BY currency ASC`

	if err := rr.client.instance().SelectContext(ctx, &rateRows, query); err != nil {
		return nil, fmt.Errorf("could not execute query: [%w]", err)
	}

	rates := make([]*forex.ExchangeRate, len(rateRows))
	for index, row := range rateRows {
		rate, err := row.unwrap()
		if err != nil {
			return nil, err
		}

		rates[index] = rate
	}

	return rates, nil
}

type rateRow struct {
	Currency  string
	Rate      pgtype.Numeric
	UpdatedAt time.Time `db:"updated_at"`
}

func (rr *rateRow) wrap(rate *forex.ExchangeRate) *rateRow {
	rr.Currency = rate.Currency.String()
	rr.Rate = decimalToNumeric(rate.Rate)
	rr.UpdatedAt = rate.UpdatedAt

	return rr
}

func (rr *rateRow) unwrap() (*forex.ExchangeRate, error) {
	rate, err := numericToDecimal(rr.Rate)
	if err != nil {
		return nil, fmt.Errorf(
			"could not convert rate of [%v]: [%w]",
			rr.Currency,
			err,
		)
	}

	return &forex.ExchangeRate{
		Currency:  forex.Currency(rr.Currency),
		Rate:      rate,
		UpdatedAt: rr.UpdatedAt,
	}, nil
}
