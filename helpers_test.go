package forex_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/lukasz-zimnoch/forex"
	"github.com/lukasz-zimnoch/forex/bcrypt"
	"github.com/lukasz-zimnoch/forex/inmem"
	"github.com/lukasz-zimnoch/forex/logrus"
	"github.com/lukasz-zimnoch/forex/uuid"
	"github.com/shopspring/decimal"
	xbcrypt "golang.org/x/crypto/bcrypt"
)

type fixture struct {
	ledgerStore  *inmem.Ledger
	rates        *inmem.RateRepository
	sessionStore *inmem.SessionStore
	events       *recordingEventService
	auth         *forex.AuthService
	ledger       *forex.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := testLogger(t)
	idService := uuid.NewIDService()

	f := &fixture{
		ledgerStore:  inmem.NewLedger(),
		rates:        inmem.NewRateRepository(),
		sessionStore: inmem.NewSessionStore(),
		events:       &recordingEventService{},
	}

	f.auth = forex.NewAuthService(
		f.ledgerStore,
		bcrypt.NewPasswordHasher(xbcrypt.MinCost),
		f.sessionStore,
		idService,
		dec("1000.00"),
		logger,
	)

	f.ledger = forex.NewLedger(
		f.rates,
		f.ledgerStore,
		f.ledgerStore,
		f.ledgerStore,
		idService,
		f.events,
		logger,
	)

	return f
}

// login registers username with a valid password and logs in.
func (f *fixture) login(t *testing.T, username string) *forex.Session {
	t.Helper()
	ctx := context.Background()

	if _, err := f.auth.Register(ctx, username, "Abcdef1!"); err != nil {
		t.Fatalf("could not register [%v]: [%v]", username, err)
	}

	session, err := f.auth.Login(ctx, username, "Abcdef1!")
	if err != nil {
		t.Fatalf("could not login [%v]: [%v]", username, err)
	}

	return session
}

func (f *fixture) setRates(t *testing.T, rates map[forex.Currency]string) {
	t.Helper()

	exchangeRates := make([]*forex.ExchangeRate, 0, len(rates))
	for currency, rate := range rates {
		exchangeRates = append(exchangeRates, &forex.ExchangeRate{
			Currency: currency,
			Rate:     dec(rate),
		})
	}

	if err := f.rates.SaveRates(context.Background(), exchangeRates); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) assertPosition(
	t *testing.T,
	username string,
	currency forex.Currency,
	expectedBalance string,
	expectedQuantity string,
) {
	t.Helper()
	ctx := context.Background()

	balance, err := f.ledgerStore.Balance(ctx, username)
	if err != nil {
		t.Fatal(err)
	}

	quantity, err := f.ledgerStore.Quantity(ctx, username, currency)
	if err != nil {
		t.Fatal(err)
	}

	assertDecimal(t, "balance", dec(expectedBalance), balance)
	assertDecimal(t, string(currency)+" quantity", dec(expectedQuantity), quantity)
}

type recordingEventService struct {
	mutex  sync.Mutex
	events []*forex.Event
}

func (res *recordingEventService) Publish(event *forex.Event) {
	res.mutex.Lock()
	defer res.mutex.Unlock()

	res.events = append(res.events, event)
}

func (res *recordingEventService) count() int {
	res.mutex.Lock()
	defer res.mutex.Unlock()

	return len(res.events)
}

func testLogger(t *testing.T) forex.Logger {
	t.Helper()

	logger, err := logrus.NewLogger("text", "error", io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	return logger
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertDecimal(
	t *testing.T,
	name string,
	expected decimal.Decimal,
	actual decimal.Decimal,
) {
	t.Helper()

	if !actual.Equal(expected) {
		t.Errorf(
			"unexpected %v\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			name,
			expected,
			actual,
		)
	}
}
