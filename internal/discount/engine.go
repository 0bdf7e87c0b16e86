package discount

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/catalog"
	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/pricing"
	"github.com/noah-isme/wholesale-pricing/internal/tier"
)

// DefaultWholesaleTag marks customers that receive tier pricing.
const DefaultWholesaleTag = "wholesale"

// ErrMissingCatalog is returned by NewEngine without a price book.
var ErrMissingCatalog = errors.New("discount: catalog is required")

// Customer is the pre-resolved customer snapshot used for one computation.
type Customer struct {
	ID            int64       `json:"id"`
	Tags          []string    `json:"tags"`
	LifetimeSpend money.Minor `json:"lifetimeSpend"`
}

// HasTag reports whether the customer carries tag, ignoring case and padding.
func (c Customer) HasTag(tag string) bool {
	want := strings.ToLower(strings.TrimSpace(tag))
	if want == "" {
		return false
	}
	for _, t := range c.Tags {
		if strings.ToLower(strings.TrimSpace(t)) == want {
			return true
		}
	}
	return false
}

// ParseTags splits a Shopify comma separated tag string.
func ParseTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Engine composes cart validation, tier resolution, pricing and next-tier advice.
type Engine struct {
	catalog *catalog.Catalog
	tiers   tier.Table
	calc    pricing.Calculator
	logger  zerolog.Logger
}

// EngineConfig wires an Engine.
type EngineConfig struct {
	Catalog *catalog.Catalog
	Logger  *zerolog.Logger
}

// NewEngine builds an Engine over the given price book.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, ErrMissingCatalog
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "discount").Logger()
	}
	tiers := cfg.Catalog.Tiers()
	return &Engine{
		catalog: cfg.Catalog,
		tiers:   tiers,
		calc:    pricing.Calculator{Book: cfg.Catalog, Tiers: tiers},
		logger:  logger,
	}, nil
}

// Catalog exposes the price book the engine prices against.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Tiers exposes the tier thresholds in use.
func (e *Engine) Tiers() tier.Table { return e.tiers }

// Compute returns the wholesale discount for one cart and customer snapshot.
// Malformed carts fail with cart.ErrInvalidCartInput; carts with unknown SKUs
// produce a NoDiscount result without touching eligibility or pricing.
func (e *Engine) Compute(ct cart.Cart, customer Customer) (Result, error) {
	metrics, err := cart.Validate(ct, e.catalog)
	if err != nil {
		return nil, err
	}
	if !metrics.IsValid {
		e.logger.Warn().
			Int64("customer_id", customer.ID).
			Strs("invalid_skus", metrics.InvalidSKUs).
			Msg("invalid_skus")
		return &NoDiscount{
			Reason:        ReasonInvalidSKUs,
			Message:       fmt.Sprintf("Unknown SKUs in cart: %s", strings.Join(metrics.InvalidSKUs, ", ")),
			OriginalTotal: metrics.OriginalCartTotal,
			InvalidSKUs:   metrics.InvalidSKUs,
		}, nil
	}

	applied := e.tiers.Determine(tier.Input{
		CartTotal:     metrics.OriginalCartTotal,
		ItemCount:     metrics.TotalItemCount,
		LifetimeSpend: customer.LifetimeSpend,
		SKUQuantities: metrics.SKUQuantities,
	})
	advice := e.tiers.NextTierGap(metrics.OriginalCartTotal, metrics.TotalItemCount, customer.LifetimeSpend, applied)

	if applied == tier.None {
		return &NoDiscount{
			Reason:               ReasonNoTier,
			Message:              "Cart does not meet any tier requirements",
			OriginalTotal:        metrics.OriginalCartTotal,
			NextTierRequirements: &advice,
		}, nil
	}

	breakdown, err := e.calc.Price(ct, applied, metrics)
	if err != nil {
		return nil, err
	}
	if !breakdown.Eligible {
		return &NoDiscount{
			Reason:               ReasonTier1Unmet,
			Message:              "Cart no longer meets TIER 1 requirements",
			OriginalTotal:        breakdown.OriginalTotal,
			Items:                breakdown.Items,
			NextTierRequirements: &advice,
		}, nil
	}

	adjustments := make([]Adjustment, 0, len(breakdown.Items))
	for _, line := range breakdown.Items {
		adjustments = append(adjustments, Adjustment{
			Line:  line,
			Label: fmt.Sprintf("%s Price: %s", applied.Label(), line.DiscountedUnitPrice.Dollars()),
		})
	}
	return &LineItemAdjustment{
		Adjustments: adjustments,
		Title:       fmt.Sprintf("Wholesale %s Pricing", applied.Label()),
		Summary: Summary{
			TotalSavings:       breakdown.TotalSavings,
			DiscountedSubtotal: breakdown.Subtotal,
			OriginalTotal:      breakdown.OriginalTotal,
			Tier:               applied,
			Requirements: Requirements{
				Tier1Eligibility:  breakdown.Tier1,
				TotalItems:        metrics.TotalItemCount,
				OriginalCartTotal: metrics.OriginalCartTotal,
			},
		},
		Tier:                 applied,
		Totals:               rollup(adjustments),
		NextTierRequirements: &advice,
	}, nil
}

// CurrentSKUPrice returns the applied tier's unit price for a SKU that is not
// necessarily in the cart yet. ok is false when no tier applies or the SKU's
// lines would not be discounted.
func (e *Engine) CurrentSKUPrice(res Result, rawSKU string) (money.Minor, bool) {
	adj, isAdj := res.(*LineItemAdjustment)
	if !isAdj {
		return 0, false
	}
	sku := catalog.BaseSKU(rawSKU)
	if sku == "" {
		return 0, false
	}
	if adj.Tier == tier.Tier1 {
		t1 := adj.Summary.Requirements.Tier1Eligibility
		minQty := e.tiers[tier.Tier1].MinQuantityPerItem
		if !t1.MeetsMinTotal && t1.ItemQuantities[sku] < minQty {
			return 0, false
		}
	}
	price, err := e.catalog.PriceFor(sku, adj.Tier)
	if err != nil {
		return 0, false
	}
	return price.Minor(), true
}
