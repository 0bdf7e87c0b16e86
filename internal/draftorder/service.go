package draftorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/discount"
	"github.com/noah-isme/wholesale-pricing/internal/lock"
	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/obs"
	"github.com/noah-isme/wholesale-pricing/internal/shopify"
	"github.com/noah-isme/wholesale-pricing/internal/tier"
	"github.com/noah-isme/wholesale-pricing/internal/wholesale"
)

// DefaultLockTTL bounds how long one draft order mutation may hold its lock.
const DefaultLockTTL = 30 * time.Second

// ErrNotConfigured is returned when the service lacks a required collaborator.
var ErrNotConfigured = errors.New("draftorder: service not configured")

// Drafts is the subset of the Shopify client used for draft orders.
type Drafts interface {
	CreateDraftOrder(ctx context.Context, d shopify.DraftOrder) (shopify.DraftOrder, error)
	GetDraftOrder(ctx context.Context, id int64) (shopify.DraftOrder, error)
	UpdateDraftOrder(ctx context.Context, id int64, d shopify.DraftOrder) (shopify.DraftOrder, error)
	DeleteDraftOrder(ctx context.Context, id int64) error
	CompleteDraftOrder(ctx context.Context, id int64, paymentPending bool) (shopify.DraftOrder, error)
	RemoveRetailDiscounts(ctx context.Context, cartToken string) ([]int64, error)
}

// Quoter prices a cart for a customer.
type Quoter interface {
	Quote(ctx context.Context, ct cart.Cart, wc discount.WireCustomer) (wholesale.Quote, error)
}

// Locker serialises work on one key.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// SpendInvalidator drops a cached lifetime spend.
type SpendInvalidator interface {
	Invalidate(ctx context.Context, customerID int64) error
}

// RefreshScheduler queues a background lifetime spend refresh.
type RefreshScheduler interface {
	EnqueueSpendRefresh(ctx context.Context, customerID int64) error
}

// Config wires a Service.
type Config struct {
	Quoter         Quoter
	Drafts         Drafts
	Locker         Locker
	LockTTL        time.Duration
	Store          Store
	Spend          SpendInvalidator
	Jobs           RefreshScheduler
	PaymentPending bool
	Logger         zerolog.Logger
}

// Service creates and manages wholesale draft orders.
type Service struct {
	quoter         Quoter
	drafts         Drafts
	locker         Locker
	lockTTL        time.Duration
	store          Store
	spend          SpendInvalidator
	jobs           RefreshScheduler
	paymentPending bool
	logger         zerolog.Logger
}

// NewService validates cfg and constructs a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Quoter == nil || cfg.Drafts == nil {
		return nil, ErrNotConfigured
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if cfg.Store == nil {
		cfg.Store = NopStore{}
	}
	return &Service{
		quoter:         cfg.Quoter,
		drafts:         cfg.Drafts,
		locker:         cfg.Locker,
		lockTTL:        cfg.LockTTL,
		store:          cfg.Store,
		spend:          cfg.Spend,
		jobs:           cfg.Jobs,
		paymentPending: cfg.PaymentPending,
		logger:         cfg.Logger.With().Str("component", "draftorder").Logger(),
	}, nil
}

// Response describes a draft order to the storefront.
type Response struct {
	ID           int64        `json:"id"`
	InvoiceURL   string       `json:"invoice_url"`
	Status       string       `json:"status"`
	TotalPrice   string       `json:"total_price"`
	AppliedTier  *tier.ID     `json:"appliedTier"`
	TotalSavings *money.Minor `json:"totalSavings,omitempty"`
}

// CompleteResponse is returned once a draft becomes an order.
type CompleteResponse struct {
	OrderID *int64 `json:"orderId"`
	Status  string `json:"status"`
}

// Create drafts ct for the customer, applying wholesale pricing when it qualifies.
func (s *Service) Create(ctx context.Context, ct cart.Cart, wc discount.WireCustomer) (resp Response, err error) {
	defer func() { obs.ObserveDraftOrder("create", err) }()

	draft, quote, err := s.build(ctx, ct, wc)
	if err != nil {
		return Response{}, err
	}
	created, err := s.drafts.CreateDraftOrder(ctx, draft)
	if err != nil {
		return Response{}, fmt.Errorf("create draft order: %w", err)
	}
	s.dropRetailDiscounts(ctx, ct, quote)
	return s.record(ctx, created, quote), nil
}

// Update re-prices ct and replaces the lines of draft order id.
func (s *Service) Update(ctx context.Context, id int64, ct cart.Cart, wc discount.WireCustomer) (resp Response, err error) {
	defer func() { obs.ObserveDraftOrder("update", err) }()

	draft, quote, err := s.build(ctx, ct, wc)
	if err != nil {
		return Response{}, err
	}
	err = s.withLock(ctx, id, func(ctx context.Context) error {
		updated, err := s.drafts.UpdateDraftOrder(ctx, id, draft)
		if err != nil {
			return fmt.Errorf("update draft order %d: %w", id, err)
		}
		resp = s.record(ctx, updated, quote)
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	s.dropRetailDiscounts(ctx, ct, quote)
	return resp, nil
}

// Get returns the current state of a draft order, enriched with the ledger's
// tier and savings when a record exists.
func (s *Service) Get(ctx context.Context, id int64) (resp Response, err error) {
	defer func() { obs.ObserveDraftOrder("get", err) }()

	draft, err := s.drafts.GetDraftOrder(ctx, id)
	if err != nil {
		return Response{}, fmt.Errorf("get draft order %d: %w", id, err)
	}
	resp = responseFor(draft)
	rec, err := s.store.Get(ctx, id)
	switch {
	case err == nil:
		if rec.Tier != tier.None {
			applied, savings := rec.Tier, rec.Savings
			resp.AppliedTier = &applied
			resp.TotalSavings = &savings
		}
	case !errors.Is(err, ErrRecordNotFound):
		s.logger.Warn().Err(err).Int64("draft_order_id", id).Msg("draft_ledger_lookup_failed")
	}
	return resp, nil
}

// Delete removes a draft order.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer func() { obs.ObserveDraftOrder("delete", err) }()

	return s.withLock(ctx, id, func(ctx context.Context) error {
		if err := s.drafts.DeleteDraftOrder(ctx, id); err != nil {
			return fmt.Errorf("delete draft order %d: %w", id, err)
		}
		s.markStatus(ctx, id, StatusDeleted, nil)
		return nil
	})
}

// Complete turns a draft into an order, then refreshes the customer's lifetime spend.
func (s *Service) Complete(ctx context.Context, id int64) (resp CompleteResponse, err error) {
	defer func() { obs.ObserveDraftOrder("complete", err) }()

	var completed shopify.DraftOrder
	err = s.withLock(ctx, id, func(ctx context.Context) error {
		var err error
		completed, err = s.drafts.CompleteDraftOrder(ctx, id, s.paymentPending)
		if err != nil {
			return fmt.Errorf("complete draft order %d: %w", id, err)
		}
		s.markStatus(ctx, id, StatusCompleted, completed.OrderID)
		return nil
	})
	if err != nil {
		return CompleteResponse{}, err
	}

	customerID := s.customerFor(ctx, id, completed)
	if customerID > 0 {
		s.refreshSpend(ctx, customerID)
	}
	return CompleteResponse{OrderID: completed.OrderID, Status: StatusCompleted}, nil
}

func (s *Service) build(ctx context.Context, ct cart.Cart, wc discount.WireCustomer) (shopify.DraftOrder, wholesale.Quote, error) {
	if err := ct.Check(); err != nil {
		return shopify.DraftOrder{}, wholesale.Quote{}, err
	}
	quote, err := s.quoter.Quote(ctx, ct, wc)
	if err != nil {
		return shopify.DraftOrder{}, wholesale.Quote{}, err
	}
	draft := shopify.DraftOrder{
		LineItems:                 LineItems(ct, quote.Result),
		UseCustomerDefaultAddress: true,
	}
	if wc.ID > 0 {
		draft.Customer = &shopify.CustomerRef{ID: wc.ID}
	}
	if adj, ok := quote.Result.(*discount.LineItemAdjustment); ok {
		draft.Note = adj.Title
		draft.Tags = discount.DefaultWholesaleTag
	}
	return draft, quote, nil
}

func (s *Service) record(ctx context.Context, d shopify.DraftOrder, quote wholesale.Quote) Response {
	resp := responseFor(d)
	rec := Record{
		ShopifyID:  d.ID,
		CustomerID: quote.Customer.ID,
		Status:     StatusOpen,
	}
	if adj, ok := quote.Result.(*discount.LineItemAdjustment); ok {
		applied, savings := adj.Tier, adj.Summary.TotalSavings
		resp.AppliedTier = &applied
		resp.TotalSavings = &savings
		rec.Tier = applied
		rec.OriginalTotal = adj.Summary.OriginalTotal
		rec.DiscountedTotal = adj.Summary.DiscountedSubtotal
		rec.Savings = savings
	} else if nd, ok := quote.Result.(*discount.NoDiscount); ok {
		rec.OriginalTotal = nd.OriginalTotal
		rec.DiscountedTotal = nd.OriginalTotal
	}
	if _, err := s.store.Save(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Int64("draft_order_id", d.ID).Msg("draft_ledger_save_failed")
	}
	return resp
}

func (s *Service) withLock(ctx context.Context, id int64, fn func(context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, lock.DraftOrderKey(id), s.lockTTL, fn)
}

func (s *Service) markStatus(ctx context.Context, id int64, status string, orderID *int64) {
	if err := s.store.MarkStatus(ctx, id, status, orderID); err != nil && !errors.Is(err, ErrRecordNotFound) {
		s.logger.Warn().Err(err).Int64("draft_order_id", id).Str("status", status).Msg("draft_ledger_update_failed")
	}
}

func (s *Service) customerFor(ctx context.Context, id int64, d shopify.DraftOrder) int64 {
	if d.Customer != nil && d.Customer.ID > 0 {
		return d.Customer.ID
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return 0
	}
	return rec.CustomerID
}

// refreshSpend drops the cached spend so the next quote sees the new order,
// then queues a warm-up. Failures only cost a cache miss.
func (s *Service) refreshSpend(ctx context.Context, customerID int64) {
	if s.spend != nil {
		if err := s.spend.Invalidate(ctx, customerID); err != nil {
			s.logger.Warn().Err(err).Int64("customer_id", customerID).Msg("spend_invalidate_failed")
		}
	}
	if s.jobs != nil {
		if err := s.jobs.EnqueueSpendRefresh(ctx, customerID); err != nil {
			s.logger.Warn().Err(err).Int64("customer_id", customerID).Msg("spend_refresh_enqueue_failed")
		}
	}
}

func (s *Service) dropRetailDiscounts(ctx context.Context, ct cart.Cart, quote wholesale.Quote) {
	if ct.Token == "" {
		return
	}
	if _, ok := quote.Result.(*discount.LineItemAdjustment); !ok {
		return
	}
	removed, err := s.drafts.RemoveRetailDiscounts(ctx, ct.Token)
	if err != nil {
		s.logger.Warn().Err(err).Str("cart_token", ct.Token).Msg("retail_discount_removal_failed")
		return
	}
	if len(removed) > 0 {
		s.logger.Info().Str("cart_token", ct.Token).Int("removed", len(removed)).Msg("retail_discounts_removed")
	}
}

func responseFor(d shopify.DraftOrder) Response {
	return Response{
		ID:         d.ID,
		InvoiceURL: d.InvoiceURL,
		Status:     d.Status,
		TotalPrice: d.TotalPrice,
	}
}
