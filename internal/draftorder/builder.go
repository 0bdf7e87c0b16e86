package draftorder

import (
	"fmt"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/discount"
	"github.com/noah-isme/wholesale-pricing/internal/pricing"
	"github.com/noah-isme/wholesale-pricing/internal/shopify"
	"github.com/noah-isme/wholesale-pricing/internal/tier"
)

// Line item property names shown on the draft order invoice.
const (
	PropertyDiscountedPrice = "Discounted Price"
	PropertyOriginalPrice   = "Original Price"
)

// LineItems converts a cart and its discount result into draft order lines.
// Discounted lines carry a fixed amount applied_discount per unit; every other
// line is drafted at its listed price.
func LineItems(ct cart.Cart, res discount.Result) []shopify.DraftLineItem {
	if adj, ok := res.(*discount.LineItemAdjustment); ok {
		items := make([]shopify.DraftLineItem, 0, len(adj.Adjustments))
		for _, a := range adj.Adjustments {
			items = append(items, adjustedLine(a.Line, adj.Tier))
		}
		return items
	}
	items := make([]shopify.DraftLineItem, 0, len(ct.Items))
	for _, it := range ct.Items {
		items = append(items, plainLine(it))
	}
	return items
}

func plainLine(it cart.LineItem) shopify.DraftLineItem {
	return shopify.DraftLineItem{
		VariantID: it.VariantID,
		Title:     it.Title,
		SKU:       it.RawSKU,
		Quantity:  it.Quantity,
		Price:     it.OriginalUnitPrice.String(),
	}
}

func adjustedLine(l pricing.Line, applied tier.ID) shopify.DraftLineItem {
	item := shopify.DraftLineItem{
		VariantID: l.VariantID,
		Title:     l.Title,
		SKU:       l.RawSKU,
		Quantity:  l.Quantity,
		Price:     l.OriginalUnitPrice.String(),
	}
	if item.Title == "" {
		item.Title = l.Description
	}
	if !l.DiscountApplied {
		return item
	}
	item.Properties = []shopify.Property{
		{Name: PropertyDiscountedPrice, Value: l.DiscountedUnitPrice.Dollars()},
		{Name: PropertyOriginalPrice, Value: l.OriginalUnitPrice.Dollars()},
	}
	off := (l.OriginalUnitPrice - l.DiscountedUnitPrice).NonNegative()
	if off == 0 {
		return item
	}
	item.AppliedDiscount = &shopify.AppliedDiscount{
		Title:       fmt.Sprintf("Wholesale %s", applied),
		Description: fmt.Sprintf("Wholesale %s Discount", applied),
		ValueType:   "fixed_amount",
		Value:       off.String(),
		Amount:      off.String(),
	}
	return item
}
