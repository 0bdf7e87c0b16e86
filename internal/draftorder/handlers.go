package draftorder

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/common"
	"github.com/noah-isme/wholesale-pricing/internal/discount"
	"github.com/noah-isme/wholesale-pricing/internal/wholesale"
)

// Handler exposes draft order endpoints.
type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Request is the body of draft order create and update calls.
type Request struct {
	Cart     cart.WireCart         `json:"cart" validate:"required"`
	Customer discount.WireCustomer `json:"customer" validate:"required"`
}

// Routes mounts the draft order endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/complete", h.Complete)
	})
}

// Create handles POST /api/draft-orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	ct, err := req.Cart.ToCart()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Create(r.Context(), ct, req.Customer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, resp)
}

// Get handles GET /api/draft-orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	resp, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, resp)
}

// Update handles PUT /api/draft-orders/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req Request
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	ct, err := req.Cart.ToCart()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp, err := h.svc.Update(r.Context(), id, ct, req.Customer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/draft-orders/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"message": "Draft order deleted"})
}

// Complete handles POST /api/draft-orders/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	resp, err := h.svc.Complete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	mapped := wholesale.MapError(err)
	var appErr *common.AppError
	if !errors.As(mapped, &appErr) || appErr.HTTPStatus >= http.StatusInternalServerError {
		wholesale.LoggerFrom(r.Context(), h.logger).Error().Err(err).
			Str("method", r.Method).Str("path", r.URL.Path).Msg("draft_order_failed")
	}
	common.WriteError(w, mapped)
}
