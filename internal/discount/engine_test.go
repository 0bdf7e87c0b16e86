package discount_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/catalog"
	"github.com/noah-isme/wholesale-pricing/internal/discount"
	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/tier"
)

func newEngine(t *testing.T) *discount.Engine {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	e, err := discount.NewEngine(discount.EngineConfig{Catalog: c})
	require.NoError(t, err)
	return e
}

func TestNewEngineRequiresCatalog(t *testing.T) {
	_, err := discount.NewEngine(discount.EngineConfig{})
	require.ErrorIs(t, err, discount.ErrMissingCatalog)
}

func TestComputeTier1Quantity(t *testing.T) {
	e := newEngine(t)
	ct := cart.Cart{Items: []cart.LineItem{cart.NewLineItem("1", "MT52", 3, 1449)}}

	res, err := e.Compute(ct, discount.Customer{ID: 7})
	require.NoError(t, err)
	adj, ok := res.(*discount.LineItemAdjustment)
	require.True(t, ok)
	require.Equal(t, tier.Tier1, adj.Tier)
	require.Equal(t, "Wholesale TIER 1 Pricing", adj.Title)
	require.Len(t, adj.Adjustments, 1)
	require.True(t, adj.Adjustments[0].DiscountApplied)
	require.Equal(t, "TIER 1 Price: $14.49", adj.Adjustments[0].Label)
	require.Equal(t, money.Minor(4347), adj.Totals.TotalDiscount)
	require.Equal(t, 3, adj.Totals.TotalQuantity)
	require.Equal(t, tier.ReasonMinimumQuantity, adj.Summary.Requirements.Tier1Eligibility.Reason)
	require.NotNil(t, adj.NextTierRequirements)
	require.Equal(t, tier.Tier2, adj.NextTierRequirements.NextTier)
}

func TestComputeTier2BySpend(t *testing.T) {
	e := newEngine(t)
	// 10 items, $300.00 total.
	ct := cart.Cart{Items: []cart.LineItem{
		cart.NewLineItem("1", "MT52", 5, 3000),
		cart.NewLineItem("2", "MS52", 5, 3000),
	}}
	res, err := e.Compute(ct, discount.Customer{LifetimeSpend: money.MustDisplay("6000").Minor()})
	require.NoError(t, err)
	require.Equal(t, discount.KindLineItemAdjustment, res.Kind())
	require.Equal(t, tier.Tier2, res.AppliedTier())

	adj := res.(*discount.LineItemAdjustment)
	require.Equal(t, money.Minor(1349), adj.Adjustments[0].DiscountedUnitPrice)
	require.Equal(t, adj.Summary.OriginalTotal-adj.Summary.TotalSavings, adj.Summary.DiscountedSubtotal)
	require.Equal(t, adj.Totals.TotalSavings, adj.Summary.TotalSavings)
}

func TestComputeSpendNeedsTier2OrderMinimum(t *testing.T) {
	e := newEngine(t)
	spend := discount.Customer{LifetimeSpend: money.MustDisplay("6000").Minor()}

	single := cart.Cart{Items: []cart.LineItem{cart.NewLineItem("1", "MT52 M", 1, 1449)}}
	res, err := e.Compute(single, spend)
	require.NoError(t, err)
	require.Equal(t, discount.KindNoDiscount, res.Kind())
	require.Equal(t, tier.None, res.AppliedTier())

	// 10 items, $250.00 total: quantity rule only.
	ct := cart.Cart{Items: []cart.LineItem{
		cart.NewLineItem("1", "MT52", 5, 2500),
		cart.NewLineItem("2", "MS52", 5, 2500),
	}}
	res, err = e.Compute(ct, spend)
	require.NoError(t, err)
	require.Equal(t, tier.Tier1, res.AppliedTier())
}

func TestComputeNoTierCarriesAdvice(t *testing.T) {
	e := newEngine(t)
	ct := cart.Cart{Items: []cart.LineItem{cart.NewLineItem("1", "MS52", 1, 5000)}}

	res, err := e.Compute(ct, discount.Customer{})
	require.NoError(t, err)
	nd, ok := res.(*discount.NoDiscount)
	require.True(t, ok)
	require.Equal(t, discount.ReasonNoTier, nd.Reason)
	require.Equal(t, tier.None, nd.AppliedTier())
	require.NotNil(t, nd.Advice())
	require.Equal(t, tier.Tier1, nd.Advice().NextTier)
	require.Equal(t, money.MustDisplay("250").Minor(), nd.Advice().Requirements.MinOrderValue)
}

func TestComputeInvalidSKUShortCircuits(t *testing.T) {
	e := newEngine(t)
	// Would be tier 3 on its own.
	ct := cart.Cart{Items: []cart.LineItem{
		cart.NewLineItem("1", "MT52", 30, 1699),
		cart.NewLineItem("2", "XX01 S", 1, 1000),
	}}
	res, err := e.Compute(ct, discount.Customer{LifetimeSpend: money.MustDisplay("20000").Minor()})
	require.NoError(t, err)
	nd, ok := res.(*discount.NoDiscount)
	require.True(t, ok)
	require.Equal(t, discount.ReasonInvalidSKUs, nd.Reason)
	require.Equal(t, []string{"XX01"}, nd.InvalidSKUs)
	require.Nil(t, nd.NextTierRequirements)
	require.Empty(t, nd.Items)
}

func TestComputeRejectsMalformedCart(t *testing.T) {
	e := newEngine(t)
	_, err := e.Compute(cart.Cart{}, discount.Customer{})
	require.ErrorIs(t, err, cart.ErrInvalidCartInput)
}

func TestComputeIsDeterministic(t *testing.T) {
	e := newEngine(t)
	ct := cart.Cart{Items: []cart.LineItem{
		cart.NewLineItem("a", "MT52 S", 2, 1699),
		cart.NewLineItem("b", "MT52 M", 3, 1699),
		cart.NewLineItem("c", "MS52 L", 1, 2499),
		cart.NewLineItem("d", "MJT/MJP64 Grey L", 4, 5299),
	}}
	customer := discount.Customer{ID: 42, Tags: []string{"wholesale"}, LifetimeSpend: 120000}

	first, err := e.Compute(ct, customer)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		res, err := e.Compute(ct, customer)
		require.NoError(t, err)
		got, err := json.Marshal(res)
		require.NoError(t, err)
		require.Equal(t, string(want), string(got))
	}
}

func TestResultJSONCarriesType(t *testing.T) {
	e := newEngine(t)
	res, err := e.Compute(cart.Cart{Items: []cart.LineItem{cart.NewLineItem("1", "MT52", 1, 1699)}}, discount.Customer{})
	require.NoError(t, err)
	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "no_discount", body["type"])
	require.Equal(t, "no_tier_qualified", body["reason"])

	res, err = e.Compute(cart.Cart{Items: []cart.LineItem{cart.NewLineItem("1", "MT52", 3, 1699)}}, discount.Customer{})
	require.NoError(t, err)
	raw, err = json.Marshal(res)
	require.NoError(t, err)
	body = map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "line_item_adjustment", body["type"])
	require.Equal(t, "TIER_1", body["tier"])
}

func TestCurrentSKUPrice(t *testing.T) {
	e := newEngine(t)
	ct := cart.Cart{Items: []cart.LineItem{
		cart.NewLineItem("1", "MT52", 3, 1699),
		cart.NewLineItem("2", "MS52", 1, 2499),
	}}
	res, err := e.Compute(ct, discount.Customer{})
	require.NoError(t, err)

	price, ok := e.CurrentSKUPrice(res, "MT52 XL")
	require.True(t, ok)
	require.Equal(t, money.Minor(1449), price)

	_, ok = e.CurrentSKUPrice(res, "MS52")
	require.False(t, ok)

	_, ok = e.CurrentSKUPrice(&discount.NoDiscount{}, "MT52")
	require.False(t, ok)
}

func TestCustomerTags(t *testing.T) {
	c := discount.Customer{Tags: discount.ParseTags("VIP, Wholesale ,  ")}
	require.Equal(t, []string{"VIP", "Wholesale"}, c.Tags)
	require.True(t, c.HasTag(discount.DefaultWholesaleTag))
	require.False(t, c.HasTag("retail"))
	require.False(t, c.HasTag(""))
}

func TestWireCustomerTags(t *testing.T) {
	var a, b discount.WireCustomer
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"tags":["wholesale","vip"]}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"tags":"vip, wholesale"}`), &b))
	require.True(t, a.Customer().HasTag(discount.DefaultWholesaleTag))
	require.True(t, b.Customer().HasTag(discount.DefaultWholesaleTag))
	require.Equal(t, int64(2), b.Customer().ID)
}
