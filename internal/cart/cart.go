package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/wholesale-pricing/internal/catalog"
	"github.com/noah-isme/wholesale-pricing/internal/money"
)

// ErrInvalidCartInput is returned for empty or malformed carts.
var ErrInvalidCartInput = errors.New("invalid cart input")

// LineItem is one storefront cart line. SKU holds the base SKU derived from RawSKU.
type LineItem struct {
	LineID            string      `json:"lineId,omitempty"`
	VariantID         int64       `json:"variantId,omitempty"`
	Title             string      `json:"title,omitempty"`
	RawSKU            string      `json:"rawSku"`
	SKU               string      `json:"sku"`
	Quantity          int         `json:"quantity"`
	OriginalUnitPrice money.Minor `json:"originalUnitPrice"`
}

// NewLineItem builds a line and derives its base SKU.
func NewLineItem(lineID, rawSKU string, quantity int, unitPrice money.Minor) LineItem {
	return LineItem{
		LineID:            lineID,
		RawSKU:            strings.TrimSpace(rawSKU),
		SKU:               catalog.BaseSKU(rawSKU),
		Quantity:          quantity,
		OriginalUnitPrice: unitPrice,
	}
}

// OriginalTotal is the listed line total in minor units.
func (l LineItem) OriginalTotal() money.Minor {
	return l.OriginalUnitPrice.Times(l.Quantity)
}

// Cart is an immutable snapshot of the storefront cart.
type Cart struct {
	Token string     `json:"token,omitempty"`
	Items []LineItem `json:"items"`
}

// Check rejects carts that cannot be evaluated at all.
func (c Cart) Check() error {
	if len(c.Items) == 0 {
		return fmt.Errorf("%w: cart has no items", ErrInvalidCartInput)
	}
	for i, it := range c.Items {
		if strings.TrimSpace(it.RawSKU) == "" || it.SKU == "" {
			return fmt.Errorf("%w: item %d has no sku", ErrInvalidCartInput, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d (%s) has quantity %d", ErrInvalidCartInput, i, it.RawSKU, it.Quantity)
		}
		if it.OriginalUnitPrice < 0 {
			return fmt.Errorf("%w: item %d (%s) has a negative price", ErrInvalidCartInput, i, it.RawSKU)
		}
	}
	return nil
}
