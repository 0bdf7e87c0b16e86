package ratelimit

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRate allows 120 requests per minute per client.
const DefaultRate = "120-M"

// NewRedisStore returns a limiter store shared by every API replica.
func NewRedisStore(client redis.UniversalClient, prefix string) (limiter.Store, error) {
	if prefix == "" {
		prefix = "wholesale:ratelimit"
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return store, nil
}

// New builds a limiter from a formatted rate such as "120-M" or "10-S".
func New(formatted string, store limiter.Store) (*limiter.Limiter, error) {
	if formatted == "" {
		formatted = DefaultRate
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", formatted, err)
	}
	return limiter.New(store, rate), nil
}
