package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/lukasz-zimnoch/forex"
	"github.com/shopspring/decimal"
)

type AccountRepository struct {
	client     *Client
	transactor *LedgerTransactor
}

func NewAccountRepository(client *Client) *AccountRepository {
	return &AccountRepository{client, NewLedgerTransactor(client)}
}

func (ar *AccountRepository) CreateAccount(
	ctx context.Context,
	account *forex.Account,
) error {
	query := `INSERT INTO 
    	account (username, password_hash, balance, created_at) 
    	VALUES (:username, :password_hash, :balance, :created_at)`

	_, err := ar.client.instance().NamedExecContext(
		ctx,
		query,
		new(accountRow).wrap(account),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf(
				"%w: [%v]",
				forex.ErrDuplicateUsername,
				account.Username,
			)
		}

		return fmt.Errorf(
			"could not execute command for account [%v]: [%w]",
			account.Username,
			err,
		)
	}

	return nil
}

func (ar *AccountRepository) Account(
	ctx context.Context,
	username string,
) (*forex.Account, error) {
	var accountRow accountRow

	query := `SELECT * FROM account WHERE username = $1`

	err := ar.client.instance().GetContext(ctx, &accountRow, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: [%v]", forex.ErrAccountNotFound, username)
		}

		return nil, fmt.Errorf("could not execute query: [%w]", err)
	}

	return accountRow.unwrap()
}

func (ar *AccountRepository) Balance(
	ctx context.Context,
	username string,
) (decimal.Decimal, error) {
	account, err := ar.Account(ctx, username)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

func (ar *AccountRepository) AdjustBalance(
	ctx context.Context,
	username string,
	delta decimal.Decimal,
) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := ar.transactor.Transact(ctx, username, func(tx forex.LedgerTx) error {
		var err error
		balance, err = tx.AdjustBalance(ctx, delta)
		return err
	})

	return balance, err
}

type accountRow struct {
	Username     string
	PasswordHash []byte         `db:"password_hash"`
	Balance      pgtype.Numeric `db:"balance"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (ar *accountRow) wrap(account *forex.Account) *accountRow {
	ar.Username = account.Username
	ar.PasswordHash = account.PasswordHash
	ar.Balance = decimalToNumeric(account.Balance)
	ar.CreatedAt = account.CreatedAt

	return ar
}

func (ar *accountRow) unwrap() (*forex.Account, error) {
	balance, err := numericToDecimal(ar.Balance)
	if err != nil {
		return nil, fmt.Errorf(
			"could not convert balance of [%v]: [%w]",
			ar.Username,
			err,
		)
	}

	return &forex.Account{
		Username:     ar.Username,
		PasswordHash: ar.PasswordHash,
		Balance:      balance,
		CreatedAt:    ar.CreatedAt,
	}, nil
}
