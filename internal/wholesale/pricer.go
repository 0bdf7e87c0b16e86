package wholesale

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/discount"
	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/obs"
)

// SpendLookup resolves a customer's lifetime spend.
type SpendLookup interface {
	Lookup(ctx context.Context, customerID int64) (money.Minor, error)
}

// Pricer gates on the wholesale tag, resolves lifetime spend and runs the
// discount engine.
type Pricer struct {
	Engine       *discount.Engine
	Spend        SpendLookup
	WholesaleTag string
	Logger       zerolog.Logger
}

// Quote is the outcome of pricing one cart for one customer.
type Quote struct {
	// Wholesale is false when the customer lacks the wholesale tag; Result is
	// nil in that case.
	Wholesale bool
	Customer  discount.Customer
	Result    discount.Result
}

func (p *Pricer) tag() string {
	if p.WholesaleTag == "" {
		return discount.DefaultWholesaleTag
	}
	return p.WholesaleTag
}

// Quote prices ct for the customer. Carts that fail validation are answered
// without a spend lookup.
func (p *Pricer) Quote(ctx context.Context, ct cart.Cart, wc discount.WireCustomer) (Quote, error) {
	customer := wc.Customer()
	q := Quote{Customer: customer}
	if !customer.HasTag(p.tag()) {
		return q, nil
	}
	q.Wholesale = true

	metrics, err := cart.Validate(ct, p.Engine.Catalog())
	if err != nil {
		return q, err
	}
	if metrics.IsValid && customer.ID > 0 && p.Spend != nil {
		spent, err := p.Spend.Lookup(ctx, customer.ID)
		if err != nil {
			return q, fmt.Errorf("lifetime spend for customer %d: %w", customer.ID, err)
		}
		customer.LifetimeSpend = spent
		q.Customer = customer
	}

	res, err := p.Engine.Compute(ct, customer)
	if err != nil {
		return q, err
	}
	q.Result = res
	observe(res)

	LoggerFrom(ctx, p.Logger).Debug().
		Int64("customer_id", customer.ID).
		Str("tier", string(res.AppliedTier())).
		Str("kind", string(res.Kind())).
		Msg("discount_computed")
	return q, nil
}

func observe(res discount.Result) {
	switch r := res.(type) {
	case *discount.LineItemAdjustment:
		obs.ObserveDiscount(string(r.Tier), string(r.Kind()), int64(r.Summary.TotalSavings))
	case *discount.NoDiscount:
		obs.ObserveDiscount("", string(r.Reason), 0)
	}
}
