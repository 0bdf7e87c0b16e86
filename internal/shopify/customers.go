package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/wholesale-pricing/internal/money"
)

const ordersPageLimit = 250

// maxOrderPages bounds pagination for customers with very long histories.
const maxOrderPages = 200

// Shop fetches the shop resource. It doubles as a connectivity check.
func (c *Client) Shop(ctx context.Context) (Shop, error) {
	var out struct {
		Shop Shop `json:"shop"`
	}
	if _, err := c.do(ctx, http.MethodGet, c.endpoint("shop", nil), nil, &out); err != nil {
		return Shop{}, err
	}
	return out.Shop, nil
}

// Customer fetches one customer.
func (c *Client) Customer(ctx context.Context, id int64) (Customer, error) {
	var out struct {
		Customer Customer `json:"customer"`
	}
	if _, err := c.do(ctx, http.MethodGet, c.endpoint("customers/"+strconv.FormatInt(id, 10), nil), nil, &out); err != nil {
		return Customer{}, err
	}
	return out.Customer, nil
}

// CustomerOrders lists every order of the customer in any status, following
// Link header pagination.
func (c *Client) CustomerOrders(ctx context.Context, id int64) ([]Order, error) {
	query := url.Values{}
	query.Set("status", "any")
	query.Set("limit", strconv.Itoa(ordersPageLimit))
	query.Set("fields", "id,name,total_price,financial_status,cancelled_at")
	next := c.endpoint("customers/"+strconv.FormatInt(id, 10)+"/orders", query)

	var orders []Order
	for page := 0; next != "" && page < maxOrderPages; page++ {
		var out struct {
			Orders []Order `json:"orders"`
		}
		hdr, err := c.do(ctx, http.MethodGet, next, nil, &out)
		if err != nil {
			return nil, err
		}
		orders = append(orders, out.Orders...)
		next = nextPage(hdr)
	}
	if next != "" {
		return nil, fmt.Errorf("customer %d: %w (%d orders read)", id, ErrHistoryTruncated, len(orders))
	}
	return orders, nil
}

// LifetimeSpend sums total_price across all of the customer's orders. A total
// that is not a decimal fails the lookup with money.ErrInvalidAmount.
func (c *Client) LifetimeSpend(ctx context.Context, customerID int64) (money.Minor, error) {
	orders, err := c.CustomerOrders(ctx, customerID)
	if err != nil {
		return 0, err
	}
	return SumOrderTotals(orders)
}

// SumOrderTotals adds up order totals in minor units. A missing total fails
// with money.ErrInvalidAmount.
func SumOrderTotals(orders []Order) (money.Minor, error) {
	var total money.Minor
	for _, o := range orders {
		if strings.TrimSpace(o.TotalPrice) == "" {
			return 0, fmt.Errorf("order %d total: %w: missing value", o.ID, money.ErrInvalidAmount)
		}
		d, err := money.ParseDisplay(o.TotalPrice)
		if err != nil {
			return 0, fmt.Errorf("order %d total: %w", o.ID, err)
		}
		total += d.Minor()
	}
	return total, nil
}
