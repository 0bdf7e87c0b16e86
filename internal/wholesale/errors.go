package wholesale

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/cart"
	"github.com/noah-isme/wholesale-pricing/internal/common"
	"github.com/noah-isme/wholesale-pricing/internal/lock"
	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/pricing"
	"github.com/noah-isme/wholesale-pricing/internal/resilience"
	"github.com/noah-isme/wholesale-pricing/internal/shopify"
)

// MapError translates domain and upstream errors into AppErrors.
func MapError(err error) error {
	if err == nil || common.IsAppError(err) {
		return err
	}
	var statusErr *resilience.StatusError
	var apiErr *shopify.APIError
	switch {
	case errors.Is(err, cart.ErrInvalidCartInput):
		return common.BadRequest(err.Error(), err)
	case errors.Is(err, money.ErrInvalidAmount):
		// request amounts are rejected while decoding, so this came from Shopify
		return common.Upstream("shopify returned an invalid amount", err)
	case errors.Is(err, shopify.ErrNotFound):
		return common.NotFound("shopify resource not found", err)
	case errors.Is(err, lock.ErrNotAcquired):
		return common.NewAppError(common.CodeConflict, "resource is being modified, retry shortly", http.StatusConflict, err)
	case errors.Is(err, resilience.ErrOpenCircuit),
		errors.Is(err, shopify.ErrUnauthorized),
		errors.Is(err, shopify.ErrHistoryTruncated),
		errors.As(err, &statusErr),
		errors.As(err, &apiErr):
		return common.Upstream("shopify request failed", err)
	case errors.Is(err, pricing.ErrInvariant):
		return common.Internal("pricing failed", err)
	}
	return err
}

// LoggerFrom returns the request scoped logger, or fallback when none is attached.
func LoggerFrom(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}
