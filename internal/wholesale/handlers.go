package wholesale

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/common"
	"github.com/noah-isme/wholesale-pricing/internal/discount"
	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/shopify"
	"github.com/noah-isme/wholesale-pricing/internal/tier"
)

// ShopPinger checks Shopify connectivity.
type ShopPinger interface {
	Shop(ctx context.Context) (shopify.Shop, error)
}

// Handler serves the storefront pricing endpoints.
type Handler struct {
	pricer *Pricer
	shop   ShopPinger
	logger zerolog.Logger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Pricer *Pricer
	Shop   ShopPinger
	Logger zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{pricer: cfg.Pricer, shop: cfg.Shop, logger: cfg.Logger}
}

// PriceRequest is the body of POST /api/wholesale-prices and /api/cart-details.
type PriceRequest struct {
	Cart       cart.WireCart         `json:"cart" validate:"required"`
	Customer   discount.WireCustomer `json:"customer"`
	CurrentSKU string                `json:"current_sku"`
}

// PriceResponse answers a wholesale customer's pricing request. AppliedTier is
// null when no discount applies.
type PriceResponse struct {
	AppliedTier     *tier.ID        `json:"appliedTier"`
	Discount        discount.Result `json:"discount"`
	CurrentSKUPrice *money.Minor    `json:"current_sku_price,omitempty"`
}

// notWholesale mirrors the storefront contract for untagged customers.
var notWholesale = map[string]any{"prices": map[string]any{}}

// WholesalePrices handles POST /api/wholesale-prices for product pages.
func (h *Handler) WholesalePrices(w http.ResponseWriter, r *http.Request) {
	h.price(w, r, true)
}

// CartDetails handles POST /api/cart-details for the cart page.
func (h *Handler) CartDetails(w http.ResponseWriter, r *http.Request) {
	h.price(w, r, false)
}

func (h *Handler) price(w http.ResponseWriter, r *http.Request, withCurrentSKU bool) {
	var req PriceRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	ct, err := req.Cart.ToCart()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	quote, err := h.pricer.Quote(r.Context(), ct, req.Customer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !quote.Wholesale {
		common.JSON(w, http.StatusOK, notWholesale)
		return
	}

	resp := PriceResponse{Discount: quote.Result}
	if applied := quote.Result.AppliedTier(); applied != tier.None {
		resp.AppliedTier = &applied
	}
	if withCurrentSKU && req.CurrentSKU != "" {
		if price, ok := h.pricer.Engine.CurrentSKUPrice(quote.Result, req.CurrentSKU); ok {
			resp.CurrentSKUPrice = &price
		}
	}
	common.JSON(w, http.StatusOK, resp)
}

// TestConnection handles GET /test-connection.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	if h.shop == nil {
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeUpstream, "shopify client not configured", nil)
		return
	}
	shop, err := h.shop.Shop(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("shopify_connection_failed")
		common.JSON(w, http.StatusBadGateway, map[string]any{
			"status":  "error",
			"message": "Failed to connect to Shopify",
			"error":   err.Error(),
		})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"shop":    shop,
		"message": "Successfully connected to Shopify!",
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	mapped := MapError(err)
	var appErr *common.AppError
	if !errors.As(mapped, &appErr) || appErr.HTTPStatus >= http.StatusInternalServerError {
		LoggerFrom(r.Context(), h.logger).Error().Err(err).Str("path", r.URL.Path).Msg("wholesale_pricing_failed")
	}
	common.WriteError(w, mapped)
}
