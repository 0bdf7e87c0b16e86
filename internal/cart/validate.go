package cart

import "github.com/noah-isme/wholesale-pricing/internal/money"

// SKULookup reports whether a base SKU exists in the price book.
type SKULookup interface {
	Has(baseSKU string) bool
}

// Metrics summarises a validated cart. Totals only include recognised SKUs.
type Metrics struct {
	IsValid           bool           `json:"isValid"`
	InvalidSKUs       []string       `json:"invalidSkus,omitempty"`
	SKUQuantities     map[string]int `json:"skuQuantities"`
	TotalItemCount    int            `json:"totalItemCount"`
	OriginalCartTotal money.Minor    `json:"originalCartTotal"`
}

// Validate checks every line against the price book, aggregating quantity per
// base SKU. Unknown SKUs are collected rather than returned as errors; the cart
// is valid only when there are none. Malformed carts fail with ErrInvalidCartInput.
func Validate(c Cart, skus SKULookup) (Metrics, error) {
	if err := c.Check(); err != nil {
		return Metrics{}, err
	}
	m := Metrics{SKUQuantities: make(map[string]int, len(c.Items))}
	seenInvalid := map[string]struct{}{}
	for _, it := range c.Items {
		if !skus.Has(it.SKU) {
			if _, dup := seenInvalid[it.SKU]; !dup {
				seenInvalid[it.SKU] = struct{}{}
				m.InvalidSKUs = append(m.InvalidSKUs, it.SKU)
			}
			continue
		}
		m.SKUQuantities[it.SKU] += it.Quantity
		m.TotalItemCount += it.Quantity
		m.OriginalCartTotal += it.OriginalTotal()
	}
	m.IsValid = len(m.InvalidSKUs) == 0
	return m, nil
}
