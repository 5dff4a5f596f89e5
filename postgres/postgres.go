package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lukasz-zimnoch/forex"
	"github.com/shopspring/decimal"
)

const (
	databaseModeCheckTick = 1 * time.Minute
	uniqueViolationCode   = "23505"
)

type Config struct {
	Address      string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MigrationDir string
}

func (c *Config) address() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Address,
		c.Name,
		c.SSLMode,
	)
}

type Client struct {
	mutex    sync.RWMutex
	database *sqlx.DB
	logger   forex.Logger
}

func NewClient(
	ctx context.Context,
	config *Config,
	logger forex.Logger,
) (*Client, error) {
	database, err := connectDatabase(ctx, config)
	if err != nil {
		return nil, err
	}

	client := &Client{
		database: database,
		logger:   logger.WithField("component", "postgres"),
	}

	go client.monitorDatabaseMode(ctx, config)

	return client, nil
}

func connectDatabase(ctx context.Context, config *Config) (*sqlx.DB, error) {
	database, err := sqlx.ConnectContext(ctx, "pgx", config.address())
	if err != nil {
		return nil, fmt.Errorf("could not connect database: [%w]", err)
	}

	return database, nil
}

// monitorDatabaseMode reconnects when the instance got demoted to a
// read-only replica, which happens on managed failovers.
func (c *Client) monitorDatabaseMode(ctx context.Context, config *Config) {
	ticker := time.NewTicker(databaseModeCheckTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var isReadonly bool
			err := c.instance().GetContext(
				ctx,
				&isReadonly,
				"SELECT pg_is_in_recovery()",
			)
			if err != nil {
				c.logger.Errorf(
					"could not determine database mode: [%v]",
					err,
				)
				continue
			}

			if isReadonly {
				c.logger.Infof(
					"database instance demoted to read-only mode; " +
						"reconnecting master database",
				)

				newDatabase, err := connectDatabase(ctx, config)
				if err != nil {
					c.logger.Errorf(
						"could not reconnect master database: [%v]",
						err,
					)
					continue
				}

				c.mutex.Lock()
				_ = c.database.Close()
				c.database = newDatabase
				c.mutex.Unlock()

				c.logger.Infof("reconnected master database")
			}
		case <-ctx.Done():
			_ = c.instance().Close()
			return
		}
	}
}

func (c *Client) instance() *sqlx.DB {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.database
}

func RunMigration(
	logger forex.Logger,
	config *Config,
) error {
	if len(config.MigrationDir) == 0 {
		logger.Infof("postgres migration disabled")
		return nil
	}

	logger.Infof("starting postgres migration")

	migration, err := migrate.New(
		"file://"+config.MigrationDir,
		config.address(),
	)
	if err != nil {
		return err
	}

	err = migration.Up()
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Infof("postgres migration skipped as there are no changes")
			return nil
		}

		return err
	}

	logger.Infof("postgres migration performed successfully")

	return nil
}

func decimalToNumeric(value decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:    value.Coefficient(),
		Exp:    value.Exponent(),
		Status: pgtype.Present,
	}
}

func numericToDecimal(value pgtype.Numeric) (decimal.Decimal, error) {
	if value.Status != pgtype.Present || value.Int == nil {
		return decimal.Zero, fmt.Errorf("numeric value is not a number")
	}

	return decimal.NewFromBigInt(value.Int, value.Exp), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
