package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lukasz-zimnoch/forex"
)

type RateRepository struct {
	ratesMutex sync.RWMutex
	rates      map[forex.Currency]forex.ExchangeRate
}

func NewRateRepository() *RateRepository {
	return &RateRepository{
		rates: make(map[forex.Currency]forex.ExchangeRate),
	}
}

func (rr *RateRepository) SaveRates(
	_ context.Context,
	rates []*forex.ExchangeRate,
) error {
	rr.ratesMutex.Lock()
	defer rr.ratesMutex.Unlock()

	for _, rate := range rates {
		rr.rates[rate.Currency] = *rate
	}

	return nil
}

func (rr *RateRepository) Rate(
	_ context.Context,
	currency forex.Currency,
) (*forex.ExchangeRate, error) {
	rr.ratesMutex.RLock()
	defer rr.ratesMutex.RUnlock()

	rate, ok := rr.rates[currency]
	if !ok {
		return nil, fmt.Errorf("%w: [%v]", forex.ErrUnknownCurrency, currency)
	}

	return &rate, nil
}

func (rr *RateRepository) Rates(_ context.Context) ([]*forex.ExchangeRate, error) {
	rr.ratesMutex.RLock()
	defer rr.ratesMutex.RUnlock()

	rates := make([]*forex.ExchangeRate, 0, len(rr.rates))
	for _, rate := range rr.rates {
		rate := rate
		rates = append(rates, &rate)
	}

	sort.Slice(rates, func(i, j int) bool {
		return rates[i].Currency < rates[j].Currency
	})

	return rates, nil
}
