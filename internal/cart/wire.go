package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/wholesale-pricing/internal/money"
)

// LineRef is a storefront line identifier sent either as a number or a string.
type LineRef string

// UnmarshalJSON accepts 123, "123" or "key:abc".
func (r *LineRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = LineRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("line id: %w", err)
	}
	*r = LineRef(n.String())
	return nil
}

// WireItem is a cart line as posted by the storefront. OriginalPrice is
// either a display decimal ("14.49", 14.49) or integer minor units (1449) and
// must be present.
type WireItem struct {
	ID            LineRef           `json:"id"`
	VariantID     int64             `json:"variant_id"`
	SKU           string            `json:"sku" validate:"required"`
	Title         string            `json:"title"`
	Quantity      int               `json:"quantity" validate:"gte=1"`
	OriginalPrice *money.WireAmount `json:"original_price" validate:"required"`
}

// WireCart is the storefront cart payload.
type WireCart struct {
	Token string     `json:"token"`
	Items []WireItem `json:"items" validate:"required,min=1,dive"`
}

// ToCart converts the payload into a domain cart. A line without a price
// fails with ErrInvalidCartInput.
func (w WireCart) ToCart() (Cart, error) {
	items := make([]LineItem, 0, len(w.Items))
	for i, it := range w.Items {
		if it.OriginalPrice == nil {
			return Cart{}, fmt.Errorf("%w: item %d (%s) has no original_price", ErrInvalidCartInput, i, it.SKU)
		}
		line := NewLineItem(string(it.ID), it.SKU, it.Quantity, it.OriginalPrice.Minor())
		line.VariantID = it.VariantID
		line.Title = strings.TrimSpace(it.Title)
		items = append(items, line)
	}
	return Cart{Token: strings.TrimSpace(w.Token), Items: items}, nil
}
