package pricing

import (
	"errors"
	"fmt"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/catalog"
	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/tier"
)

var (
	// ErrNoTier is returned when pricing is requested without a resolved tier.
	ErrNoTier = errors.New("pricing: no tier resolved")
	// ErrInvariant marks failures that can only happen if validation was skipped.
	ErrInvariant = errors.New("pricing invariant violated")
)

// ReasonTier1Unmet is reported when a tier 1 cart fails the eligibility re-check.
const ReasonTier1Unmet = "tier1_requirements_unmet"

// Book supplies descriptions and tier unit prices for base SKUs.
type Book interface {
	Lookup(baseSKU string) (catalog.Entry, bool)
	PriceFor(baseSKU string, id tier.ID) (money.Display, error)
}

// Line is the priced outcome of one cart line. All amounts are minor units.
type Line struct {
	LineID              string      `json:"lineId,omitempty"`
	VariantID           int64       `json:"variantId,omitempty"`
	Title               string      `json:"title,omitempty"`
	RawSKU              string      `json:"rawSku"`
	SKU                 string      `json:"sku"`
	Description         string      `json:"description"`
	Quantity            int         `json:"quantity"`
	OriginalUnitPrice   money.Minor `json:"originalUnitPrice"`
	DiscountedUnitPrice money.Minor `json:"discountedUnitPrice"`
	OriginalTotal       money.Minor `json:"originalTotal"`
	DiscountedTotal     money.Minor `json:"discountedTotal"`
	Savings             money.Minor `json:"savings"`
	DiscountApplied     bool        `json:"discountApplied"`
}

// Breakdown aggregates priced lines for one tier.
type Breakdown struct {
	Tier          tier.ID               `json:"tier"`
	Items         []Line                `json:"items"`
	Subtotal      money.Minor           `json:"subtotal"`
	TotalSavings  money.Minor           `json:"totalSavings"`
	OriginalTotal money.Minor           `json:"originalTotal"`
	ItemCount     int                   `json:"itemCount"`
	Eligible      bool                  `json:"eligible"`
	Reason        string                `json:"reason,omitempty"`
	Tier1         tier.Tier1Eligibility `json:"tier1Eligibility"`
}

// Calculator prices carts against the price book.
type Calculator struct {
	Book  Book
	Tiers tier.Table
}

// Price computes per-line and aggregate prices for a validated cart.
//
// Tiers 2 and 3 discount every line. Tier 1 discounts a line only when the cart
// total reaches the tier 1 order value, the line itself reaches the per-item
// quantity, or the cart-wide quantity of the line's base SKU does. A tier 1
// cart that fails the eligibility re-check comes back with Eligible=false and
// original prices.
func (c Calculator) Price(ct cart.Cart, id tier.ID, m cart.Metrics) (Breakdown, error) {
	if !id.Valid() {
		return Breakdown{}, ErrNoTier
	}
	if c.Book == nil {
		return Breakdown{}, fmt.Errorf("%w: price book not configured", ErrInvariant)
	}
	t1 := c.Tiers.CheckTier1(m.SKUQuantities, m.OriginalCartTotal)
	out := Breakdown{Tier: id, Eligible: true, Tier1: t1, ItemCount: m.TotalItemCount}

	if id == tier.Tier1 && !t1.Eligible {
		lines, err := c.OriginalLines(ct)
		if err != nil {
			return Breakdown{}, err
		}
		out.Eligible = false
		out.Reason = ReasonTier1Unmet
		out.addLines(lines)
		return out, nil
	}

	minQty := c.Tiers[tier.Tier1].MinQuantityPerItem
	lines := make([]Line, 0, len(ct.Items))
	for _, it := range ct.Items {
		qualifies := id != tier.Tier1 ||
			t1.MeetsMinTotal ||
			(minQty > 0 && it.Quantity >= minQty) ||
			(minQty > 0 && m.SKUQuantities[it.SKU] >= minQty)

		line, err := c.baseLine(it)
		if err != nil {
			return Breakdown{}, err
		}
		if qualifies {
			price, err := c.Book.PriceFor(it.SKU, id)
			if err != nil {
				return Breakdown{}, fmt.Errorf("%w: %w", ErrInvariant, err)
			}
			unit := price.Minor()
			// Never charge more than the listed price.
			if unit > it.OriginalUnitPrice {
				unit = it.OriginalUnitPrice
			}
			line.DiscountedUnitPrice = unit
			line.DiscountApplied = true
		}
		line.DiscountedTotal = line.DiscountedUnitPrice.Times(line.Quantity)
		line.Savings = line.OriginalTotal - line.DiscountedTotal
		lines = append(lines, line)
	}
	out.addLines(lines)
	return out, nil
}

// OriginalLines prices every line at its listed price with no discount.
func (c Calculator) OriginalLines(ct cart.Cart) ([]Line, error) {
	lines := make([]Line, 0, len(ct.Items))
	for _, it := range ct.Items {
		line, err := c.baseLine(it)
		if err != nil {
			return nil, err
		}
		line.DiscountedTotal = line.OriginalTotal
		lines = append(lines, line)
	}
	return lines, nil
}

func (c Calculator) baseLine(it cart.LineItem) (Line, error) {
	entry, ok := c.Book.Lookup(it.SKU)
	if !ok {
		return Line{}, fmt.Errorf("%w: %w: %s", ErrInvariant, catalog.ErrUnknownSku, it.SKU)
	}
	return Line{
		LineID:              it.LineID,
		VariantID:           it.VariantID,
		Title:               it.Title,
		RawSKU:              it.RawSKU,
		SKU:                 it.SKU,
		Description:         entry.Description,
		Quantity:            it.Quantity,
		OriginalUnitPrice:   it.OriginalUnitPrice,
		DiscountedUnitPrice: it.OriginalUnitPrice,
		OriginalTotal:       it.OriginalTotal(),
	}, nil
}

func (b *Breakdown) addLines(lines []Line) {
	b.Items = lines
	for _, l := range lines {
		b.Subtotal += l.DiscountedTotal
		b.TotalSavings += l.Savings
		b.OriginalTotal += l.OriginalTotal
	}
}
