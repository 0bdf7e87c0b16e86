package draftorder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/tier"
)

// Ledger statuses.
const (
	StatusOpen      = "open"
	StatusCompleted = "completed"
	StatusDeleted   = "deleted"
)

var (
	// ErrStoreUnavailable indicates the ledger database is not configured.
	ErrStoreUnavailable = errors.New("draftorder: store unavailable")
	// ErrRecordNotFound is returned when no ledger row exists for a draft.
	ErrRecordNotFound = errors.New("draftorder: record not found")
)

// Record is the local ledger entry for one Shopify draft order.
type Record struct {
	ID              uuid.UUID
	ShopifyID       int64
	CustomerID      int64
	Tier            tier.ID
	OriginalTotal   money.Minor
	DiscountedTotal money.Minor
	Savings         money.Minor
	Status          string
	ShopifyOrderID  *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Store persists draft order ledger records.
type Store interface {
	Save(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, shopifyID int64) (Record, error)
	MarkStatus(ctx context.Context, shopifyID int64, status string, orderID *int64) error
}

// NewPGStore constructs a Store backed by a pgx connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// PGStore is the Postgres ledger.
type PGStore struct {
	pool *pgxpool.Pool
}

// Save upserts a record keyed by its Shopify id. The local id of an existing
// row is kept.
func (s *PGStore) Save(ctx context.Context, rec Record) (Record, error) {
	if s == nil || s.pool == nil {
		return Record{}, ErrStoreUnavailable
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Status == "" {
		rec.Status = StatusOpen
	}
	var tierValue any
	if rec.Tier != tier.None {
		tierValue = string(rec.Tier)
	}
	var customer any
	if rec.CustomerID > 0 {
		customer = rec.CustomerID
	}
	row := s.pool.QueryRow(ctx, `INSERT INTO draft_orders
    (id, shopify_id, customer_id, tier, original_total_cents, discounted_total_cents, savings_cents, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (shopify_id) DO UPDATE SET
    customer_id = EXCLUDED.customer_id,
    tier = EXCLUDED.tier,
    original_total_cents = EXCLUDED.original_total_cents,
    discounted_total_cents = EXCLUDED.discounted_total_cents,
    savings_cents = EXCLUDED.savings_cents,
    status = EXCLUDED.status,
    updated_at = now()
RETURNING id, created_at, updated_at`,
		rec.ID, rec.ShopifyID, customer, tierValue,
		int64(rec.OriginalTotal), int64(rec.DiscountedTotal), int64(rec.Savings), rec.Status)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Get loads the record for a Shopify draft order.
func (s *PGStore) Get(ctx context.Context, shopifyID int64) (Record, error) {
	if s == nil || s.pool == nil {
		return Record{}, ErrStoreUnavailable
	}
	row := s.pool.QueryRow(ctx, `SELECT id, shopify_id, customer_id, tier, original_total_cents, discounted_total_cents,
    savings_cents, status, shopify_order_id, created_at, updated_at
FROM draft_orders WHERE shopify_id = $1`, shopifyID)
	var (
		rec        Record
		customerID *int64
		tierValue  *string
		original   int64
		discounted int64
		savings    int64
	)
	err := row.Scan(&rec.ID, &rec.ShopifyID, &customerID, &tierValue, &original, &discounted,
		&savings, &rec.Status, &rec.ShopifyOrderID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	if customerID != nil {
		rec.CustomerID = *customerID
	}
	if tierValue != nil {
		rec.Tier = tier.ID(*tierValue)
	}
	rec.OriginalTotal = money.Minor(original)
	rec.DiscountedTotal = money.Minor(discounted)
	rec.Savings = money.Minor(savings)
	return rec, nil
}

// MarkStatus updates the status of a record and, once completed, the order it became.
func (s *PGStore) MarkStatus(ctx context.Context, shopifyID int64, status string, orderID *int64) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `UPDATE draft_orders
SET status = $2, shopify_order_id = COALESCE($3, shopify_order_id), updated_at = now()
WHERE shopify_id = $1`, shopifyID, status, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// NopStore discards ledger writes. It is used when no database is configured.
type NopStore struct{}

// Save assigns a local id and returns rec without persisting it.
func (NopStore) Save(_ context.Context, rec Record) (Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return rec, nil
}

// Get always reports a missing record.
func (NopStore) Get(context.Context, int64) (Record, error) {
	return Record{}, ErrRecordNotFound
}

// MarkStatus is a no-op.
func (NopStore) MarkStatus(context.Context, int64, string, *int64) error { return nil }
