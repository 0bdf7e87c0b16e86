package shopify_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/resilience"
	"github.com/noah-isme/wholesale-pricing/internal/shopify"
)

func newTestClient(t *testing.T, h http.Handler) *shopify.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := shopify.New(shopify.Config{
		AccessToken: "shpat_test",
		BaseURL:     srv.URL,
		HTTP:        resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1},
	})
	require.NoError(t, err)
	return c
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := shopify.New(shopify.Config{ShopName: "demo"})
	require.ErrorIs(t, err, shopify.ErrConfig)
	_, err = shopify.New(shopify.Config{AccessToken: "x"})
	require.ErrorIs(t, err, shopify.ErrConfig)
	_, err = shopify.New(shopify.Config{AccessToken: "x", ShopName: "demo"})
	require.NoError(t, err)
}

func TestShopSendsAccessToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/api/2024-01/shop.json", r.URL.Path)
		require.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
		_, _ = w.Write([]byte(`{"shop":{"id":1,"name":"Demo Store","domain":"demo.example"}}`))
	}))
	shop, err := c.Shop(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Demo Store", shop.Name)
}

func TestLifetimeSpendFollowsPagination(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/api/2024-01/customers/42/orders.json", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "any", r.URL.Query().Get("status"))
		if r.URL.Query().Get("page_info") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-01/customers/42/orders.json?status=any&page_info=p2>; rel="next"`, srvURL))
			_, _ = w.Write([]byte(`{"orders":[{"id":1,"total_price":"120.50"},{"id":2,"total_price":"79.50"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"orders":[{"id":3,"total_price":"5800.00"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL
	c, err := shopify.New(shopify.Config{AccessToken: "t", BaseURL: srv.URL, HTTP: resilience.HTTPClient{Client: srv.Client()}})
	require.NoError(t, err)

	spend, err := c.LifetimeSpend(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, money.Minor(600000), spend)
}

func TestSumOrderTotalsRejectsGarbage(t *testing.T) {
	_, err := shopify.SumOrderTotals([]shopify.Order{{ID: 1, TotalPrice: "10.00"}, {ID: 2, TotalPrice: "abc"}})
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	_, err = shopify.SumOrderTotals([]shopify.Order{{ID: 1, TotalPrice: "10.00"}, {ID: 2}})
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	total, err := shopify.SumOrderTotals([]shopify.Order{{ID: 1, TotalPrice: "10.005"}, {ID: 2, TotalPrice: "0.00"}})
	require.NoError(t, err)
	require.Equal(t, money.Minor(1001), total)
}

func TestLifetimeSpendRejectsTruncatedHistory(t *testing.T) {
	var srvURL string
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/api/2024-01/customers/42/orders.json", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-01/customers/42/orders.json?status=any&page_info=p%d>; rel="next"`, srvURL, calls))
		_, _ = w.Write([]byte(`{"orders":[{"id":1,"total_price":"1.00"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL
	c, err := shopify.New(shopify.Config{AccessToken: "t", BaseURL: srv.URL, HTTP: resilience.HTTPClient{Client: srv.Client()}})
	require.NoError(t, err)

	_, err = c.LifetimeSpend(context.Background(), 42)
	require.ErrorIs(t, err, shopify.ErrHistoryTruncated)
	require.Greater(t, calls, 1)
}

func TestErrorMapping(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/api/2024-01/customers/1.json":
			w.WriteHeader(http.StatusNotFound)
		case "/admin/api/2024-01/customers/2.json":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"errors":"bad"}`))
		}
	}))
	ctx := context.Background()
	_, err := c.Customer(ctx, 1)
	require.ErrorIs(t, err, shopify.ErrNotFound)
	_, err = c.Customer(ctx, 2)
	require.ErrorIs(t, err, shopify.ErrUnauthorized)
	_, err = c.Customer(ctx, 3)
	var apiErr *shopify.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestDraftOrderLifecycle(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/admin/api/2024-01/draft_orders.json":
			var in struct {
				DraftOrder shopify.DraftOrder `json:"draft_order"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			require.Len(t, in.DraftOrder.LineItems, 1)
			require.Equal(t, "fixed_amount", in.DraftOrder.LineItems[0].AppliedDiscount.ValueType)
			_, _ = w.Write([]byte(`{"draft_order":{"id":9,"status":"open","invoice_url":"https://x/inv","total_price":"43.47"}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/admin/api/2024-01/draft_orders/9/complete.json":
			require.Equal(t, "true", r.URL.Query().Get("payment_pending"))
			_, _ = w.Write([]byte(`{"draft_order":{"id":9,"status":"completed","order_id":77}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/admin/api/2024-01/draft_orders/9.json":
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	ctx := context.Background()

	created, err := c.CreateDraftOrder(ctx, shopify.DraftOrder{LineItems: []shopify.DraftLineItem{{
		VariantID:       1,
		Quantity:        3,
		AppliedDiscount: &shopify.AppliedDiscount{ValueType: "fixed_amount", Value: "2.50"},
	}}})
	require.NoError(t, err)
	require.Equal(t, int64(9), created.ID)
	require.Equal(t, "open", created.Status)

	done, err := c.CompleteDraftOrder(ctx, 9, true)
	require.NoError(t, err)
	require.NotNil(t, done.OrderID)
	require.Equal(t, int64(77), *done.OrderID)

	require.NoError(t, c.DeleteDraftOrder(ctx, 9))
}

func TestRemoveRetailDiscounts(t *testing.T) {
	var deleted []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"discounts":[{"id":1,"title":"Retail Summer"},{"id":2,"title":"Loyalty"}]}`))
			return
		}
		deleted = append(deleted, r.URL.Path)
	}))
	removed, err := c.RemoveRetailDiscounts(context.Background(), "tok1")
	require.NoError(t, err)
	require.Equal(t, []int64{1}, removed)
	require.Equal(t, []string{"/admin/api/2024-01/carts/tok1/discounts/1.json"}, deleted)
}
