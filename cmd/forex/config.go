package main

import (
	"fmt"
	"time"

	"github.com/lukasz-zimnoch/forex/binance"
	"github.com/lukasz-zimnoch/forex/exchangerate"
	"github.com/sherifabdlnaby/configuro"
	"github.com/shopspring/decimal"
)

const (
	storagePostgres = "postgres"
	storageMemory   = "memory"

	sourceExchangeRate = "exchangerate"
	sourceBinance      = "binance"

	sessionFile   = "file"
	sessionRedis  = "redis"
	sessionMemory = "memory"

	eventsLog    = "log"
	eventsPubSub = "pubsub"
	eventsMail   = "mail"
)

// Config values can be set using either environment variables with `CONFIG_`
// prefix or config.yml file placed in working directory.
// See https://github.com/sherifabdlnaby/configuro.
type Config struct {
	Logging  Logging
	Storage  Storage
	Database Database
	Rates    Rates
	Binance  Binance
	Session  Session
	Redis    Redis
	Events   Events
	PubSub   PubSub
	Mail     Mail
	Accounts Accounts
}

type Logging struct {
	Level  string
	Format string
}

type Storage struct {
	Backend string
}

type Database struct {
	Address      string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MigrationDir string
}

type Rates struct {
	Source          string
	URL             string
	Timeout         time.Duration
	RefreshInterval time.Duration
}

type Binance struct {
	ApiKey     string
	SecretKey  string
	QuoteAsset string
	Assets     []string
}

type Session struct {
	Backend string
	// Path of the session file, relative to the home directory unless
	// absolute.
	Path string
	Key  string
	TTL  time.Duration
}

type Redis struct {
	Address  string
	Password string
	DB       int
}

type Events struct {
	Backend string
}

type PubSub struct {
	Project string
	Topic   string
}

type Mail struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Recipient string
}

type Accounts struct {
	InitialBalance string
}

func defaultConfig() *Config {
	return &Config{
		Logging: Logging{
			Level: "warning",
		},
		Storage: Storage{
			Backend: storageMemory,
		},
		Database: Database{
			Address:      "localhost:5432",
			User:         "postgres",
			Password:     "postgres",
			Name:         "postgres",
			SSLMode:      "disable",
			MigrationDir: "database/migrations",
		},
		Rates: Rates{
			Source:          sourceExchangeRate,
			URL:             exchangerate.DefaultURL,
			Timeout:         10 * time.Second,
			RefreshInterval: 10 * time.Minute,
		},
		Binance: Binance{
			QuoteAsset: binance.DefaultQuoteAsset,
			Assets:     []string{"EUR", "GBP", "TRY", "BRL"},
		},
		Session: Session{
			Backend: sessionMemory,
			Path:    ".forex/session",
		},
		Redis: Redis{
			Address: "localhost:6379",
		},
		Events: Events{
			Backend: eventsLog,
		},
		PubSub: PubSub{
			Topic: "forex-notifications",
		},
		Mail: Mail{
			Port: 587,
		},
		Accounts: Accounts{
			InitialBalance: "1000.00",
		},
	}
}

func readConfig() (*Config, error) {
	loader, err := configuro.NewConfig()
	if err != nil {
		return nil, err
	}

	config := defaultConfig()

	err = loader.Load(config)
	if err != nil {
		return nil, err
	}

	err = loader.Validate(config)
	if err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if err := oneOf(
		"storage backend",
		c.Storage.Backend,
		storagePostgres,
		storageMemory,
	); err != nil {
		return err
	}

	if err := oneOf(
		"rates source",
		c.Rates.Source,
		sourceExchangeRate,
		sourceBinance,
	); err != nil {
		return err
	}

	if err := oneOf(
		"session backend",
		c.Session.Backend,
		sessionFile,
		sessionRedis,
		sessionMemory,
	); err != nil {
		return err
	}

	if err := oneOf(
		"events backend",
		c.Events.Backend,
		eventsLog,
		eventsPubSub,
		eventsMail,
	); err != nil {
		return err
	}

	// A remembered identity outliving the process would point at an
	// account the next run no longer has.
	if c.Storage.Backend == storageMemory && c.Session.Backend != sessionMemory {
		return fmt.Errorf(
			"session backend [%v] requires a persistent storage backend",
			c.Session.Backend,
		)
	}

	if c.Events.Backend == eventsPubSub && len(c.PubSub.Project) == 0 {
		return fmt.Errorf("pubsub project is required for pubsub events")
	}

	if c.Events.Backend == eventsMail && len(c.Mail.Recipient) == 0 {
		return fmt.Errorf("mail recipient is required for mail events")
	}

	if _, err := c.Accounts.initialBalance(); err != nil {
		return err
	}

	return nil
}

func (a *Accounts) initialBalance() (decimal.Decimal, error) {
	balance, err := decimal.NewFromString(a.InitialBalance)
	if err != nil || balance.IsNegative() {
		return decimal.Zero, fmt.Errorf(
			"invalid initial balance: [%v]",
			a.InitialBalance,
		)
	}

	return balance, nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}

	return fmt.Errorf("unknown %v [%v], expected one of %v", name, value, allowed)
}
