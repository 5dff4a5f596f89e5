package forex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultRateFetchTimeout = 10 * time.Second

type ExchangeRate struct {
	Currency Currency
	// Rate is the number of Currency units equivalent to one USD.
	Rate      decimal.Decimal
	UpdatedAt time.Time
}

// RateRepository keeps the latest known rate per currency. SaveRates upserts
// by key: currencies missing from the input keep their previous rate.
type RateRepository interface {
	SaveRates(ctx context.Context, rates []*ExchangeRate) error

	Rate(ctx context.Context, currency Currency) (*ExchangeRate, error)

	Rates(ctx context.Context) ([]*ExchangeRate, error)
}

// RateSnapshot maps currency codes to textual rates per USD exactly as the
// upstream source delivered them.
type RateSnapshot map[string]string

type RateSource interface {
	FetchRates(ctx context.Context) (RateSnapshot, error)
}

type RateService struct {
	repository   RateRepository
	source       RateSource
	fetchTimeout time.Duration
	logger       Logger
}

func NewRateService(
	repository RateRepository,
	source RateSource,
	fetchTimeout time.Duration,
	logger Logger,
) *RateService {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultRateFetchTimeout
	}

	return &RateService{
		repository:   repository,
		source:       source,
		fetchTimeout: fetchTimeout,
		logger:       logger.WithField("component", "rates"),
	}
}

// Refresh fetches a snapshot and upserts every valid entry. When the fetch
// fails or yields nothing usable the stored rates are left untouched and
// the returned error wraps ErrRateFetchFailed.
func (rs *RateService) Refresh(ctx context.Context) (int, error) {
	fetchCtx, cancelFetchCtx := context.WithTimeout(ctx, rs.fetchTimeout)
	defer cancelFetchCtx()

	snapshot, err := rs.source.FetchRates(fetchCtx)
	if err != nil {
		return 0, fmt.Errorf("%w: [%v]", ErrRateFetchFailed, err)
	}

	if len(snapshot) == 0 {
		return 0, fmt.Errorf("%w: empty snapshot", ErrRateFetchFailed)
	}

	now := time.Now()
	rates := make([]*ExchangeRate, 0, len(snapshot))

	for code, value := range snapshot {
		rate, err := parseRate(code, value)
		if err != nil {
			rs.logger.Warningf("skipping snapshot entry: [%v]", err)
			continue
		}

		rate.UpdatedAt = now
		rates = append(rates, rate)
	}

	if len(rates) == 0 {
		return 0, fmt.Errorf(
			"%w: no valid entries among [%v]",
			ErrRateFetchFailed,
			len(snapshot),
		)
	}

	if err := rs.repository.SaveRates(ctx, rates); err != nil {
		return 0, fmt.Errorf("could not save rates: [%w]", err)
	}

	rs.logger.Infof(
		"refreshed [%v] rates out of [%v] snapshot entries",
		len(rates),
		len(snapshot),
	)

	return len(rates), nil
}

// Rate looks the currency up by its normalized code.
func (rs *RateService) Rate(
	ctx context.Context,
	currency Currency,
) (*ExchangeRate, error) {
	normalized, err := ParseCurrency(currency.String())
	if err != nil {
		return nil, err
	}

	return rs.repository.Rate(ctx, normalized)
}

func (rs *RateService) Rates(ctx context.Context) ([]*ExchangeRate, error) {
	return rs.repository.Rates(ctx)
}

func parseRate(code, value string) (*ExchangeRate, error) {
	currency, err := ParseCurrency(code)
	if err != nil {
		return nil, err
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf(
			"rate [%v] of [%v] is not numeric",
			value,
			currency,
		)
	}

	if !rate.IsPositive() {
		return nil, fmt.Errorf(
			"rate [%v] of [%v] is not positive",
			value,
			currency,
		)
	}

	return &ExchangeRate{Currency: currency, Rate: rate}, nil
}
