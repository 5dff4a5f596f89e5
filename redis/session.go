package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSessionKey = "forex:session"

type Config struct {
	Address  string
	Password string
	DB       int
}

func NewClient(ctx context.Context, config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not reach redis: [%w]", err)
	}

	return client, nil
}

// SessionStore keeps the remembered username under a single key. A zero
// ttl keeps it until cleared.
type SessionStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, key string, ttl time.Duration) *SessionStore {
	if len(key) == 0 {
		key = defaultSessionKey
	}

	return &SessionStore{client, key, ttl}
}

func (ss *SessionStore) Save(ctx context.Context, identity string) error {
	if err := ss.client.Set(ctx, ss.key, identity, ss.ttl).Err(); err != nil {
		return fmt.Errorf("could not store session: [%w]", err)
	}

	return nil
}

func (ss *SessionStore) Load(ctx context.Context) (string, bool, error) {
	identity, err := ss.client.Get(ctx, ss.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("could not load session: [%w]", err)
	}

	return identity, len(identity) > 0, nil
}

func (ss *SessionStore) Clear(ctx context.Context) error {
	if err := ss.client.Del(ctx, ss.key).Err(); err != nil {
		return fmt.Errorf("could not clear session: [%w]", err)
	}

	return nil
}
