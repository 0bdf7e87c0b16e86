package pricing_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/catalog"
	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/pricing"
	"github.com/noah-isme/wholesale-pricing/internal/tier"
)

func newCalculator(t *testing.T) (pricing.Calculator, *catalog.Catalog) {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return pricing.Calculator{Book: c, Tiers: c.Tiers()}, c
}

func priceCart(t *testing.T, ct cart.Cart, id tier.ID) pricing.Breakdown {
	t.Helper()
	calc, cat := newCalculator(t)
	m, err := cart.Validate(ct, cat)
	require.NoError(t, err)
	require.True(t, m.IsValid)
	out, err := calc.Price(ct, id, m)
	require.NoError(t, err)
	return out
}

func TestTier1QuantityScenario(t *testing.T) {
	ct := cart.Cart{Items: []cart.LineItem{cart.NewLineItem("1", "MT52", 3, 1449)}}
	out := priceCart(t, ct, tier.Tier1)
	require.True(t, out.Eligible)
	require.Len(t, out.Items, 1)
	line := out.Items[0]
	require.True(t, line.DiscountApplied)
	require.Equal(t, money.Minor(1449), line.DiscountedUnitPrice)
	require.Equal(t, money.Minor(4347), line.DiscountedTotal)
	require.Equal(t, money.Minor(0), line.Savings)
	require.Equal(t, tier.ReasonMinimumQuantity, out.Tier1.Reason)
}

func TestTier1DiscountsOnlyQualifyingSKUs(t *testing.T) {
	ct := cart.Cart{Items: []cart.LineItem{
		cart.NewLineItem("a", "MT52 S", 2, 1699),
		cart.NewLineItem("b", "MT52 M", 3, 1699),
		cart.NewLineItem("c", "MS52 L", 1, 2499),
	}}
	out := priceCart(t, ct, tier.Tier1)
	require.True(t, out.Eligible)
	require.Len(t, out.Items, 3)

	// The two-unit MT52 line qualifies through the cart-wide MT52 quantity.
	require.True(t, out.Items[0].DiscountApplied)
	require.Equal(t, money.Minor(1449), out.Items[0].DiscountedUnitPrice)
	require.Equal(t, money.Minor(500), out.Items[0].Savings)
	require.True(t, out.Items[1].DiscountApplied)
	require.Equal(t, money.Minor(750), out.Items[1].Savings)

	require.False(t, out.Items[2].DiscountApplied)
	require.Equal(t, money.Minor(2499), out.Items[2].DiscountedUnitPrice)
	require.Zero(t, out.Items[2].Savings)

	require.Equal(t, money.Minor(5*1699+2499), out.OriginalTotal)
	require.Equal(t, money.Minor(1250), out.TotalSavings)
	require.Equal(t, out.OriginalTotal-out.TotalSavings, out.Subtotal)
}

func TestTier1CartTotalDiscountsEveryLine(t *testing.T) {
	ct := cart.Cart{Items: []cart.LineItem{
		cart.NewLineItem("a", "MJT/MJP82", 2, 7499),
		cart.NewLineItem("b", "MJT83", 2, 4999),
		cart.NewLineItem("c", "MS52", 1, 2499),
		cart.NewLineItem("d", "MJT84", 1, 3499),
	}}
	out := priceCart(t, ct, tier.Tier1)
	require.True(t, out.Tier1.MeetsMinTotal)
	require.False(t, out.Tier1.HasMinQuantity)
	for _, line := range out.Items {
		require.True(t, line.DiscountApplied, line.SKU)
	}
	require.Equal(t, money.Minor(6899), out.Items[0].DiscountedUnitPrice)
	require.Equal(t, money.Minor(4548), out.Items[1].DiscountedUnitPrice)
	require.Equal(t, money.Minor(2049), out.Items[2].DiscountedUnitPrice)
	require.Equal(t, money.Minor(2999), out.Items[3].DiscountedUnitPrice)
}

func TestTier3AppliesToAllLines(t *testing.T) {
	ct := cart.Cart{Items: []cart.LineItem{
		cart.NewLineItem("a", "MT52", 1, 1699),
		cart.NewLineItem("b", "MS82 XL", 1, 2799),
	}}
	out := priceCart(t, ct, tier.Tier3)
	require.Equal(t, money.Minor(1229), out.Items[0].DiscountedUnitPrice)
	require.Equal(t, money.Minor(2099), out.Items[1].DiscountedUnitPrice)
	require.Equal(t, money.Minor(1229+2099), out.Subtotal)
	require.Equal(t, money.Minor(470+700), out.TotalSavings)
}

func TestTier1RecheckFails(t *testing.T) {
	ct := cart.Cart{Items: []cart.LineItem{cart.NewLineItem("a", "MT52", 2, 1699)}}
	out := priceCart(t, ct, tier.Tier1)
	require.False(t, out.Eligible)
	require.Equal(t, pricing.ReasonTier1Unmet, out.Reason)
	require.False(t, out.Items[0].DiscountApplied)
	require.Equal(t, money.Minor(3398), out.Subtotal)
	require.Zero(t, out.TotalSavings)
}

func TestListedPriceBelowCatalogIsKept(t *testing.T) {
	ct := cart.Cart{Items: []cart.LineItem{cart.NewLineItem("a", "MT52", 30, 999)}}
	out := priceCart(t, ct, tier.Tier3)
	line := out.Items[0]
	require.True(t, line.DiscountApplied)
	require.Equal(t, money.Minor(999), line.DiscountedUnitPrice)
	require.Zero(t, line.Savings)
}

func TestSavingsNeverNegative(t *testing.T) {
	calc, cat := newCalculator(t)
	prices := []money.Minor{1, 999, 1449, 1500, 9999}
	for _, id := range tier.Ordered {
		for _, p := range prices {
			for _, qty := range []int{1, 3, 13} {
				ct := cart.Cart{Items: []cart.LineItem{
					cart.NewLineItem("a", "MT52", qty, p),
					cart.NewLineItem("b", "MJT64", 1, p),
				}}
				m, err := cart.Validate(ct, cat)
				require.NoError(t, err)
				out, err := calc.Price(ct, id, m)
				require.NoError(t, err)
				for _, line := range out.Items {
					require.GreaterOrEqual(t, int64(line.Savings), int64(0))
					if line.DiscountApplied {
						require.LessOrEqual(t, int64(line.DiscountedUnitPrice), int64(line.OriginalUnitPrice))
					}
				}
			}
		}
	}
}

func TestUnknownSKUDuringPricingIsInvariantViolation(t *testing.T) {
	calc, _ := newCalculator(t)
	ct := cart.Cart{Items: []cart.LineItem{cart.NewLineItem("a", "NOPE", 3, 1000)}}
	m := cart.Metrics{IsValid: true, SKUQuantities: map[string]int{"NOPE": 3}, TotalItemCount: 3, OriginalCartTotal: 3000}
	_, err := calc.Price(ct, tier.Tier2, m)
	require.True(t, errors.Is(err, pricing.ErrInvariant))
	require.True(t, errors.Is(err, catalog.ErrUnknownSku))
}

func TestPriceRequiresTier(t *testing.T) {
	calc, _ := newCalculator(t)
	_, err := calc.Price(cart.Cart{}, tier.None, cart.Metrics{})
	require.ErrorIs(t, err, pricing.ErrNoTier)
}
