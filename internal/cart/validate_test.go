package cart_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/catalog"
	"github.com/noah-isme/wholesale-pricing/internal/money"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

func TestValidateAggregatesByBaseSKU(t *testing.T) {
	c := cart.Cart{Items: []cart.LineItem{
		cart.NewLineItem("1", "MT52 S", 2, 1449),
		cart.NewLineItem("2", "MT52 L", 3, 1449),
		cart.NewLineItem("3", "MJT/MJP82 Black / M", 1, 7499),
	}}
	m, err := cart.Validate(c, newCatalog(t))
	require.NoError(t, err)
	require.True(t, m.IsValid)
	require.Empty(t, m.InvalidSKUs)
	require.Equal(t, map[string]int{"MT52": 5, "MJT/MJP82": 1}, m.SKUQuantities)
	require.Equal(t, 6, m.TotalItemCount)
	require.Equal(t, money.Minor(5*1449+7499), m.OriginalCartTotal)
}

func TestValidateCollectsUnknownSKUs(t *testing.T) {
	c := cart.Cart{Items: []cart.LineItem{
		cart.NewLineItem("1", "MT52", 4, 1449),
		cart.NewLineItem("2", "ZZ99 XL", 1, 5000),
		cart.NewLineItem("3", "ZZ99 S", 1, 5000),
	}}
	m, err := cart.Validate(c, newCatalog(t))
	require.NoError(t, err)
	require.False(t, m.IsValid)
	require.Equal(t, []string{"ZZ99"}, m.InvalidSKUs)
	require.Equal(t, 4, m.TotalItemCount)
	require.Equal(t, money.Minor(4*1449), m.OriginalCartTotal)
}

func TestValidateRejectsMalformedCarts(t *testing.T) {
	cat := newCatalog(t)
	cases := map[string]cart.Cart{
		"empty":         {},
		"zero quantity": {Items: []cart.LineItem{cart.NewLineItem("1", "MT52", 0, 1449)}},
		"blank sku":     {Items: []cart.LineItem{cart.NewLineItem("1", "  ", 1, 1449)}},
		"negative":      {Items: []cart.LineItem{cart.NewLineItem("1", "MT52", 1, -1)}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := cart.Validate(c, cat)
			require.True(t, errors.Is(err, cart.ErrInvalidCartInput))
		})
	}
}
