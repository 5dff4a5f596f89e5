package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lukasz-zimnoch/forex"
	"github.com/lukasz-zimnoch/forex/bcrypt"
	"github.com/lukasz-zimnoch/forex/binance"
	"github.com/lukasz-zimnoch/forex/exchangerate"
	"github.com/lukasz-zimnoch/forex/filesystem"
	"github.com/lukasz-zimnoch/forex/inmem"
	"github.com/lukasz-zimnoch/forex/logrus"
	"github.com/lukasz-zimnoch/forex/mail"
	"github.com/lukasz-zimnoch/forex/postgres"
	"github.com/lukasz-zimnoch/forex/pubsub"
	"github.com/lukasz-zimnoch/forex/redis"
	"github.com/lukasz-zimnoch/forex/uuid"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	config, err := readConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "could not read config: [%v]\n", err)
		return 1
	}

	logger := logrus.ConfigureStandardLogger(
		config.Logging.Format,
		config.Logging.Level,
	)

	wired, closeServices, err := wireServices(ctx, logger, config)
	if err != nil {
		logger.Errorf("could not start: [%v]", err)
		return 1
	}
	defer closeServices()

	if config.Storage.Backend == storageMemory && !isShell(args) {
		logger.Warningf(
			"memory storage is discarded on exit; " +
				"set CONFIG_STORAGE_BACKEND=postgres or use the shell command",
		)
	}

	cli := newApp(wired, os.Stdin, os.Stdout, logger)

	if err := cli.execute(ctx, args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, describe(err))
		return 1
	}

	return 0
}

func isShell(args []string) bool {
	return len(args) > 0 && args[0] == "shell"
}

type services struct {
	auth            *forex.AuthService
	ledger          *forex.Ledger
	rates           *forex.RateService
	refreshInterval time.Duration
}

type storage struct {
	accounts   forex.AccountRepository
	holdings   forex.HoldingRepository
	transactor forex.LedgerTransactor
	rates      forex.RateRepository
}

// wireServices builds the services from the configured backends. The
// returned function releases whatever the backends hold open.
func wireServices(
	ctx context.Context,
	logger forex.Logger,
	config *Config,
) (*services, func(), error) {
	var closers []io.Closer

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warningf("could not release resource: [%v]", err)
			}
		}
	}

	fail := func(err error) (*services, func(), error) {
		closeAll()
		return nil, nil, err
	}

	store, err := connectStorage(ctx, logger, config)
	if err != nil {
		return fail(err)
	}

	sessionStore, sessionCloser, err := connectSessionStore(ctx, config)
	if err != nil {
		return fail(err)
	}
	if sessionCloser != nil {
		closers = append(closers, sessionCloser)
	}

	eventService, eventCloser, err := connectEventService(ctx, logger, config)
	if err != nil {
		return fail(err)
	}
	if eventCloser != nil {
		closers = append(closers, eventCloser)
	}

	initialBalance, err := config.Accounts.initialBalance()
	if err != nil {
		return fail(err)
	}

	idService := uuid.NewIDService()

	return &services{
		auth: forex.NewAuthService(
			store.accounts,
			bcrypt.NewPasswordHasher(0),
			sessionStore,
			idService,
			initialBalance,
			logger,
		),
		ledger: forex.NewLedger(
			store.rates,
			store.accounts,
			store.holdings,
			store.transactor,
			idService,
			eventService,
			logger,
		),
		rates: forex.NewRateService(
			store.rates,
			newRateSource(config),
			config.Rates.Timeout,
			logger,
		),
		refreshInterval: config.Rates.RefreshInterval,
	}, closeAll, nil
}

func connectStorage(
	ctx context.Context,
	logger forex.Logger,
	config *Config,
) (*storage, error) {
	if config.Storage.Backend == storageMemory {
		ledger := inmem.NewLedger()

		return &storage{
			accounts:   ledger,
			holdings:   ledger,
			transactor: ledger,
			rates:      inmem.NewRateRepository(),
		}, nil
	}

	client, err := connectPostgres(ctx, logger, &config.Database)
	if err != nil {
		return nil, fmt.Errorf("could not connect postgres: [%w]", err)
	}

	return &storage{
		accounts:   postgres.NewAccountRepository(client),
		holdings:   postgres.NewHoldingRepository(client),
		transactor: postgres.NewLedgerTransactor(client),
		rates:      postgres.NewRateRepository(client),
	}, nil
}

func connectPostgres(
	ctx context.Context,
	logger forex.Logger,
	config *Database,
) (*postgres.Client, error) {
	if err := postgres.RunMigration(
		logger,
		(*postgres.Config)(config),
	); err != nil {
		return nil, fmt.Errorf(
			"could not run postgres migration: [%w]",
			err,
		)
	}

	client, err := postgres.NewClient(
		ctx,
		(*postgres.Config)(config),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"could not create postgres client: [%w]",
			err,
		)
	}

	return client, nil
}

func connectSessionStore(
	ctx context.Context,
	config *Config,
) (forex.SessionStore, io.Closer, error) {
	switch config.Session.Backend {
	case sessionMemory:
		return inmem.NewSessionStore(), nil, nil
	case sessionRedis:
		client, err := redis.NewClient(ctx, (*redis.Config)(&config.Redis))
		if err != nil {
			return nil, nil, err
		}

		return redis.NewSessionStore(
			client,
			config.Session.Key,
			config.Session.TTL,
		), client, nil
	}

	path := config.Session.Path
	if !filepath.IsAbs(path) {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf(
				"could not resolve home directory: [%w]",
				err,
			)
		}

		path = filepath.Join(home, path)
	}

	return filesystem.NewSessionStore(path), nil, nil
}

func connectEventService(
	ctx context.Context,
	logger forex.Logger,
	config *Config,
) (forex.EventService, io.Closer, error) {
	switch config.Events.Backend {
	case eventsPubSub:
		client, err := pubsub.NewClient(
			ctx,
			config.PubSub.Project,
			config.PubSub.Topic,
		)
		if err != nil {
			return nil, nil, err
		}

		return pubsub.NewEventService(client, logger), client, nil
	case eventsMail:
		eventService := mail.NewEventService(
			(*mail.Config)(&config.Mail),
			logger,
		)

		return eventService, eventService, nil
	}

	return logrus.NewEventService(logger), nil, nil
}

func newRateSource(config *Config) forex.RateSource {
	if config.Rates.Source == sourceBinance {
		return binance.NewRateSource(
			config.Binance.ApiKey,
			config.Binance.SecretKey,
			config.Binance.QuoteAsset,
			config.Binance.Assets,
		)
	}

	return exchangerate.NewRateSource(config.Rates.URL, nil)
}
