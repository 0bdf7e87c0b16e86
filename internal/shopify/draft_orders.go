package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

func draftPath(id int64, suffix string) string {
	p := "draft_orders/" + strconv.FormatInt(id, 10)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

type draftEnvelope struct {
	DraftOrder DraftOrder `json:"draft_order"`
}

// CreateDraftOrder creates a draft order.
func (c *Client) CreateDraftOrder(ctx context.Context, d DraftOrder) (DraftOrder, error) {
	var out draftEnvelope
	if _, err := c.do(ctx, http.MethodPost, c.endpoint("draft_orders", nil), draftEnvelope{DraftOrder: d}, &out); err != nil {
		return DraftOrder{}, err
	}
	return out.DraftOrder, nil
}

// GetDraftOrder fetches a draft order.
func (c *Client) GetDraftOrder(ctx context.Context, id int64) (DraftOrder, error) {
	var out draftEnvelope
	if _, err := c.do(ctx, http.MethodGet, c.endpoint(draftPath(id, ""), nil), nil, &out); err != nil {
		return DraftOrder{}, err
	}
	return out.DraftOrder, nil
}

// UpdateDraftOrder replaces the line items and customer of a draft order.
func (c *Client) UpdateDraftOrder(ctx context.Context, id int64, d DraftOrder) (DraftOrder, error) {
	d.ID = id
	var out draftEnvelope
	if _, err := c.do(ctx, http.MethodPut, c.endpoint(draftPath(id, ""), nil), draftEnvelope{DraftOrder: d}, &out); err != nil {
		return DraftOrder{}, err
	}
	return out.DraftOrder, nil
}

// DeleteDraftOrder deletes a draft order.
func (c *Client) DeleteDraftOrder(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, c.endpoint(draftPath(id, ""), nil), nil, nil)
	return err
}

// CompleteDraftOrder turns a draft into an order. paymentPending leaves the
// resulting order unpaid.
func (c *Client) CompleteDraftOrder(ctx context.Context, id int64, paymentPending bool) (DraftOrder, error) {
	var query url.Values
	if paymentPending {
		query = url.Values{"payment_pending": []string{"true"}}
	}
	var out draftEnvelope
	if _, err := c.do(ctx, http.MethodPut, c.endpoint(draftPath(id, "complete"), query), nil, &out); err != nil {
		return DraftOrder{}, err
	}
	return out.DraftOrder, nil
}

// CartDiscounts lists discounts attached to a storefront cart.
func (c *Client) CartDiscounts(ctx context.Context, cartToken string) ([]CartDiscount, error) {
	var out struct {
		Discounts []CartDiscount `json:"discounts"`
	}
	path := "carts/" + cartToken + "/discounts"
	if _, err := c.do(ctx, http.MethodGet, c.endpoint(path, nil), nil, &out); err != nil {
		return nil, err
	}
	return out.Discounts, nil
}

// RemoveRetailDiscounts deletes cart discounts whose title mentions "retail"
// so they do not stack with wholesale pricing. It returns the removed ids.
func (c *Client) RemoveRetailDiscounts(ctx context.Context, cartToken string) ([]int64, error) {
	discounts, err := c.CartDiscounts(ctx, cartToken)
	if err != nil {
		return nil, err
	}
	var removed []int64
	for _, d := range discounts {
		if !IsRetailDiscount(d) {
			continue
		}
		path := fmt.Sprintf("carts/%s/discounts/%d", cartToken, d.ID)
		if _, err := c.do(ctx, http.MethodDelete, c.endpoint(path, nil), nil, nil); err != nil {
			return removed, fmt.Errorf("remove discount %d: %w", d.ID, err)
		}
		removed = append(removed, d.ID)
	}
	return removed, nil
}

// IsRetailDiscount reports whether a cart discount is a retail promotion.
func IsRetailDiscount(d CartDiscount) bool {
	return strings.Contains(strings.ToLower(d.Title), "retail")
}
