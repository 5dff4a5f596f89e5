// Package inmem provides process-local implementations of the forex
// repositories. State is lost when the process exits.
package inmem

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/lukasz-zimnoch/forex"
	"github.com/shopspring/decimal"
)

const numShards = 32

// account holds one user's ledger rows. Fields are guarded by mutex; the
// shard lock only guards membership in the shard map.
type account struct {
	mutex    sync.Mutex
	details  forex.Account
	holdings map[forex.Currency]decimal.Decimal
}

type shard struct {
	mutex    sync.RWMutex
	accounts map[string]*account
}

// Ledger stores accounts and holdings, and runs ledger transactions
// serialized per account. Accounts are spread across shards by an FNV-1a
// hash of the username, so lookups of different users rarely share a lock
// and transactions of different users never do.
type Ledger struct {
	shards [numShards]shard
}

func NewLedger() *Ledger {
	l := &Ledger{}
	for i := range l.shards {
		l.shards[i].accounts = make(map[string]*account)
	}
	return l
}

func (l *Ledger) shardOf(username string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return &l.shards[h.Sum32()%numShards]
}

func (l *Ledger) lookup(username string) (*account, error) {
	sh := l.shardOf(username)
	sh.mutex.RLock()
	defer sh.mutex.RUnlock()

	a, ok := sh.accounts[username]
	if !ok {
		return nil, fmt.Errorf("%w: [%v]", forex.ErrAccountNotFound, username)
	}

	return a, nil
}

func (l *Ledger) CreateAccount(_ context.Context, details *forex.Account) error {
	sh := l.shardOf(details.Username)
	sh.mutex.Lock()
	defer sh.mutex.Unlock()

	if _, exists := sh.accounts[details.Username]; exists {
		return fmt.Errorf(
			"%w: [%v]",
			forex.ErrDuplicateUsername,
			details.Username,
		)
	}

	if details.Balance.IsNegative() {
		return fmt.Errorf(
			"%w: initial balance [%v] is negative",
			forex.ErrInvalidAmount,
			details.Balance,
		)
	}

	a := &account{
		details:  *details,
		holdings: make(map[forex.Currency]decimal.Decimal),
	}
	a.details.PasswordHash = append([]byte(nil), details.PasswordHash...)

	sh.accounts[details.Username] = a

	return nil
}

func (l *Ledger) Account(
	_ context.Context,
	username string,
) (*forex.Account, error) {
	a, err := l.lookup(username)
	if err != nil {
		return nil, err
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	details := a.details
	details.PasswordHash = append([]byte(nil), a.details.PasswordHash...)

	return &details, nil
}

func (l *Ledger) Balance(
	_ context.Context,
	username string,
) (decimal.Decimal, error) {
	a, err := l.lookup(username)
	if err != nil {
		return decimal.Zero, err
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.details.Balance, nil
}

func (l *Ledger) AdjustBalance(
	ctx context.Context,
	username string,
	delta decimal.Decimal,
) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := l.Transact(ctx, username, func(tx forex.LedgerTx) error {
		var err error
		balance, err = tx.AdjustBalance(ctx, delta)
		return err
	})

	return balance, err
}

func (l *Ledger) Quantity(
	_ context.Context,
	username string,
	currency forex.Currency,
) (decimal.Decimal, error) {
	a, err := l.lookup(username)
	if err != nil {
		return decimal.Zero, err
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.holdings[currency], nil
}

func (l *Ledger) Holdings(
	_ context.Context,
	username string,
) ([]*forex.Holding, error) {
	a, err := l.lookup(username)
	if err != nil {
		return nil, err
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	holdings := make([]*forex.Holding, 0, len(a.holdings))
	for currency, quantity := range a.holdings {
		holdings = append(holdings, &forex.Holding{
			Username: username,
			Currency: currency,
			Quantity: quantity,
		})
	}

	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].Currency < holdings[j].Currency
	})

	return holdings, nil
}

func (l *Ledger) AdjustQuantity(
	ctx context.Context,
	username string,
	currency forex.Currency,
	delta decimal.Decimal,
) (decimal.Decimal, error) {
	var quantity decimal.Decimal

	err := l.Transact(ctx, username, func(tx forex.LedgerTx) error {
		var err error
		quantity, err = tx.AdjustQuantity(ctx, currency, delta)
		return err
	})

	return quantity, err
}

// Transact holds the account lock for the whole of fn. Changes are staged
// in the transaction and copied into the account only when fn succeeds.
func (l *Ledger) Transact(
	ctx context.Context,
	username string,
	fn func(tx forex.LedgerTx) error,
) error {
	a, err := l.lookup(username)
	if err != nil {
		return err
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &ledgerTx{
		account:  a,
		balance:  a.details.Balance,
		holdings: make(map[forex.Currency]decimal.Decimal),
	}

	if err := fn(tx); err != nil {
		return err
	}

	a.details.Balance = tx.balance
	for currency, quantity := range tx.holdings {
		a.holdings[currency] = quantity
	}

	return nil
}

// ledgerTx is only valid while the owning account lock is held.
type ledgerTx struct {
	account  *account
	balance  decimal.Decimal
	holdings map[forex.Currency]decimal.Decimal
}

func (lt *ledgerTx) Balance(_ context.Context) (decimal.Decimal, error) {
	return lt.balance, nil
}

func (lt *ledgerTx) AdjustBalance(
	_ context.Context,
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

	lt.balance = balance

	return balance, nil
}

func (lt *ledgerTx) Quantity(
	_ context.Context,
	currency forex.Currency,
) (decimal.Decimal, error) {
	return lt.quantity(currency), nil
}

func (lt *ledgerTx) AdjustQuantity(
	_ context.Context,
	currency forex.Currency,
	delta decimal.Decimal,
) (decimal.Decimal, error) {
	current := lt.quantity(currency)

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

	_, exists := lt.account.holdings[currency]
	if _, staged := lt.holdings[currency]; !exists && !staged && !delta.IsPositive() {
		// Nothing to record for a zero adjustment of an absent holding.
		return quantity, nil
	}

	lt.holdings[currency] = quantity

	return quantity, nil
}

func (lt *ledgerTx) quantity(currency forex.Currency) decimal.Decimal {
	if quantity, ok := lt.holdings[currency]; ok {
		return quantity
	}

	return lt.account.holdings[currency]
}
