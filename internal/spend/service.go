package spend

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/cache"
	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/obs"
)

// ErrNoCustomer is returned for lookups without a customer id.
var ErrNoCustomer = errors.New("spend: customer id is required")

// Source computes a customer's lifetime spend from the order history.
type Source interface {
	LifetimeSpend(ctx context.Context, customerID int64) (money.Minor, error)
}

// Snapshot is the cached lifetime spend of one customer.
type Snapshot struct {
	CustomerID int64       `json:"customerId"`
	Amount     money.Minor `json:"amount"`
	FetchedAt  time.Time   `json:"fetchedAt"`
}

// Service resolves lifetime spend, serving from Redis when possible.
type Service struct {
	source Source
	cache  *cache.Cache
	logger zerolog.Logger
	now    func() time.Time
}

// Config wires a Service.
type Config struct {
	Source Source
	Cache  *cache.Cache
	Logger *zerolog.Logger
}

// NewService builds a Service. A nil Cache disables caching.
func NewService(cfg Config) *Service {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "spend").Logger()
	}
	return &Service{source: cfg.Source, cache: cfg.Cache, logger: logger, now: time.Now}
}

func key(customerID int64) string {
	return "lifetime_spend:" + strconv.FormatInt(customerID, 10)
}

// Lookup returns the customer's lifetime spend. Cache failures are logged and
// fall through to the source.
func (s *Service) Lookup(ctx context.Context, customerID int64) (money.Minor, error) {
	if customerID <= 0 {
		return 0, ErrNoCustomer
	}
	var snap Snapshot
	hit, err := s.cache.GetJSON(ctx, key(customerID), &snap)
	if err != nil {
		s.logger.Warn().Err(err).Int64("customer_id", customerID).Msg("spend_cache_read_failed")
	}
	if hit {
		obs.ObserveSpendLookup("cache")
		return snap.Amount, nil
	}
	return s.Refresh(ctx, customerID)
}

// Refresh recomputes the spend from the source and stores it.
func (s *Service) Refresh(ctx context.Context, customerID int64) (money.Minor, error) {
	if customerID <= 0 {
		return 0, ErrNoCustomer
	}
	if s.source == nil {
		return 0, errors.New("spend: source not configured")
	}
	amount, err := s.source.LifetimeSpend(ctx, customerID)
	if err != nil {
		obs.ObserveSpendLookup("error")
		return 0, err
	}
	obs.ObserveSpendLookup("source")
	snap := Snapshot{CustomerID: customerID, Amount: amount, FetchedAt: s.now().UTC()}
	if err := s.cache.SetJSON(ctx, key(customerID), snap); err != nil {
		s.logger.Warn().Err(err).Int64("customer_id", customerID).Msg("spend_cache_write_failed")
	}
	return amount, nil
}

// Invalidate drops the cached value so the next Lookup hits the source.
func (s *Service) Invalidate(ctx context.Context, customerID int64) error {
	return s.cache.Delete(ctx, key(customerID))
}
