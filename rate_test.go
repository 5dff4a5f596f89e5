package forex_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lukasz-zimnoch/forex"
	"github.com/lukasz-zimnoch/forex/inmem"
)

type stubRateSource struct {
	snapshot forex.RateSnapshot
	err      error
	block    bool
}

func (srs *stubRateSource) FetchRates(
	ctx context.Context,
) (forex.RateSnapshot, error) {
	if srs.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	return srs.snapshot, srs.err
}

func newRateService(
	t *testing.T,
	source forex.RateSource,
) (*forex.RateService, *inmem.RateRepository) {
	repository := inmem.NewRateRepository()

	err := repository.SaveRates(context.Background(), []*forex.ExchangeRate{
		{Currency: "EUR", Rate: dec("0.90")},
		{Currency: "JPY", Rate: dec("150")},
	})
	if err != nil {
		t.Fatal(err)
	}

	return forex.NewRateService(
		repository,
		source,
		50*time.Millisecond,
		testLogger(t),
	), repository
}

func assertRate(
	t *testing.T,
	service *forex.RateService,
	currency forex.Currency,
	expected string,
) {
	t.Helper()

	rate, err := service.Rate(context.Background(), currency)
	if err != nil {
		t.Fatal(err)
	}

	assertDecimal(t, string(currency)+" rate", dec(expected), rate.Rate)
}

func TestRateService_RefreshUpsertsByCurrency(t *testing.T) {
	service, _ := newRateService(t, &stubRateSource{
		snapshot: forex.RateSnapshot{
			"EUR": "0.92",
			"GBP": "0.79",
		},
	})

	count, err := service.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if count != 2 {
		t.Errorf(
			"unexpected refreshed count\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			2,
			count,
		)
	}

	assertRate(t, service, "EUR", "0.92")
	assertRate(t, service, "GBP", "0.79")
	// Missing from the snapshot, so the previous rate stays.
	assertRate(t, service, "JPY", "150")
}

func TestRateService_RefreshSkipsInvalidEntries(t *testing.T) {
	service, _ := newRateService(t, &stubRateSource{
		snapshot: forex.RateSnapshot{
			"EUR":      "0.95",
			"JPY":      "-1",
			"GBP":      "n/a",
			"CHF":      "0",
			"not-code": "1.5",
		},
	})

	count, err := service.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if count != 1 {
		t.Errorf("unexpected refreshed count: [%v]", count)
	}

	assertRate(t, service, "EUR", "0.95")
	assertRate(t, service, "JPY", "150")

	if _, err := service.Rate(context.Background(), "GBP"); !errors.Is(err, forex.ErrUnknownCurrency) {
		t.Errorf("unexpected error for skipped currency: [%v]", err)
	}
}

func TestRateService_RefreshFailureKeepsRates(t *testing.T) {
	tests := map[string]*stubRateSource{
		"source error":   {err: fmt.Errorf("connection refused")},
		"empty snapshot": {snapshot: forex.RateSnapshot{}},
		"nothing valid":  {snapshot: forex.RateSnapshot{"EUR": "abc"}},
		"timeout":        {block: true},
	}

	for name, source := range tests {
		t.Run(name, func(t *testing.T) {
			service, _ := newRateService(t, source)

			count, err := service.Refresh(context.Background())
			if !errors.Is(err, forex.ErrRateFetchFailed) {
				t.Fatalf(
					"unexpected error\n"+
						"expected: [%v]\n"+
						"actual:   [%v]",
					forex.ErrRateFetchFailed,
					err,
				)
			}

			if count != 0 {
				t.Errorf("unexpected refreshed count: [%v]", count)
			}

			assertRate(t, service, "EUR", "0.90")
			assertRate(t, service, "JPY", "150")
		})
	}
}

func TestRateService_Rates(t *testing.T) {
	service, _ := newRateService(t, &stubRateSource{})

	rates, err := service.Rates(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(rates) != 2 || rates[0].Currency != "EUR" || rates[1].Currency != "JPY" {
		t.Errorf("unexpected rates: [%+v]", rates)
	}
}

func TestRateRefresher(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	service, _ := newRateService(t, &stubRateSource{
		snapshot: forex.RateSnapshot{"EUR": "0.93"},
	})

	refresher := forex.RunRateRefresher(
		ctx,
		service,
		10*time.Millisecond,
		testLogger(t),
	)

	for i := 0; i < 2; i++ {
		select {
		case count := <-refresher.Refreshed():
			if count != 1 {
				t.Errorf("unexpected refreshed count: [%v]", count)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("refresher did not refresh")
		}
	}

	assertRate(t, service, "EUR", "0.93")
}

func TestRateRefresher_FailureKeepsRunning(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	source := &switchingRateSource{failures: 2}
	service, _ := newRateService(t, source)

	refresher := forex.RunRateRefresher(
		ctx,
		service,
		10*time.Millisecond,
		testLogger(t),
	)

	select {
	case <-refresher.Refreshed():
	case <-time.After(5 * time.Second):
		t.Fatalf("refresher did not recover")
	}

	assertRate(t, service, "EUR", "0.91")
}

// switchingRateSource fails a number of times before succeeding. It is
// only called from the refresher goroutine.
type switchingRateSource struct {
	failures int
}

func (srs *switchingRateSource) FetchRates(
	_ context.Context,
) (forex.RateSnapshot, error) {
	if srs.failures > 0 {
		srs.failures--
		return nil, fmt.Errorf("upstream unavailable")
	}

	return forex.RateSnapshot{"EUR": "0.91"}, nil
}

func TestRateService_RateNormalizesCode(t *testing.T) {
	service, _ := newRateService(t, &stubRateSource{})

	assertRate(t, service, " eur ", "0.90")

	if _, err := service.Rate(context.Background(), "e"); !errors.Is(err, forex.ErrUnknownCurrency) {
		t.Errorf("unexpected error for malformed code: [%v]", err)
	}
}
