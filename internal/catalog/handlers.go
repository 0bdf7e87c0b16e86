package catalog

import (
	"net/http"
	"strings"

	"github.com/noah-isme/wholesale-pricing/internal/common"
)

// Handler exposes the wholesale price book to the storefront.
type Handler struct {
	catalog *Catalog
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Catalog *Catalog
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{catalog: cfg.Catalog}
}

// List handles GET /api/catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":  h.catalog.Entries(),
		"tiers": h.catalog.Tiers(),
	})
}

// Lookup handles GET /api/catalog/lookup?sku=MT52%20XL. Variant suffixes are ignored.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("sku"))
	if raw == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "sku is required", nil)
		return
	}
	entry, ok := h.catalog.Lookup(BaseSKU(raw))
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "sku not found", map[string]any{"sku": raw})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entry})
}
