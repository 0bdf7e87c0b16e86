package discount

import (
	"encoding/json"

	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/pricing"
	"github.com/noah-isme/wholesale-pricing/internal/tier"
)

// Kind tags the discount result variant.
type Kind string

const (
	// KindNoDiscount marks a NoDiscount result.
	KindNoDiscount Kind = "no_discount"
	// KindLineItemAdjustment marks a LineItemAdjustment result.
	KindLineItemAdjustment Kind = "line_item_adjustment"
)

// Reason is the machine-readable cause of a NoDiscount result.
type Reason string

const (
	// ReasonInvalidSKUs means the cart holds SKUs missing from the price book.
	ReasonInvalidSKUs Reason = "invalid_skus"
	// ReasonNoTier means no tier's requirements are met.
	ReasonNoTier Reason = "no_tier_qualified"
	// ReasonTier1Unmet means the tier 1 re-check during pricing failed.
	ReasonTier1Unmet Reason = pricing.ReasonTier1Unmet
)

// Result is either *NoDiscount or *LineItemAdjustment.
type Result interface {
	Kind() Kind
	AppliedTier() tier.ID
	Advice() *tier.Advice
	isResult()
}

// NoDiscount is returned when wholesale pricing does not apply.
type NoDiscount struct {
	Reason               Reason         `json:"reason"`
	Message              string         `json:"message"`
	OriginalTotal        money.Minor    `json:"originalTotal"`
	InvalidSKUs          []string       `json:"invalidSkus,omitempty"`
	Items                []pricing.Line `json:"items,omitempty"`
	NextTierRequirements *tier.Advice   `json:"nextTierRequirements,omitempty"`
}

// Kind implements Result.
func (*NoDiscount) Kind() Kind { return KindNoDiscount }

// AppliedTier implements Result.
func (*NoDiscount) AppliedTier() tier.ID { return tier.None }

// Advice implements Result.
func (n *NoDiscount) Advice() *tier.Advice { return n.NextTierRequirements }

func (*NoDiscount) isResult() {}

// MarshalJSON adds the variant tag.
func (n *NoDiscount) MarshalJSON() ([]byte, error) {
	type alias NoDiscount
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{Type: KindNoDiscount, alias: (*alias)(n)})
}

// Adjustment is a priced line together with its customer-facing label.
type Adjustment struct {
	pricing.Line
	Label string `json:"label"`
}

// Requirements records the cart facts behind the applied tier.
type Requirements struct {
	Tier1Eligibility  tier.Tier1Eligibility `json:"tier1Eligibility"`
	TotalItems        int                   `json:"totalItems"`
	OriginalCartTotal money.Minor           `json:"originalCartTotal"`
}

// Summary is the headline of a LineItemAdjustment.
type Summary struct {
	TotalSavings       money.Minor  `json:"totalSavings"`
	DiscountedSubtotal money.Minor  `json:"discountedSubtotal"`
	OriginalTotal      money.Minor  `json:"originalTotal"`
	Tier               tier.ID      `json:"tier"`
	Requirements       Requirements `json:"requirements"`
}

// Totals rolls up the adjustments.
type Totals struct {
	TotalDiscount money.Minor `json:"totalDiscount"`
	TotalSavings  money.Minor `json:"totalSavings"`
	TotalQuantity int         `json:"totalQuantity"`
	TotalOriginal money.Minor `json:"totalOriginal"`
}

// LineItemAdjustment carries per-line wholesale prices for the applied tier.
type LineItemAdjustment struct {
	Adjustments          []Adjustment `json:"adjustments"`
	Title                string       `json:"title"`
	Summary              Summary      `json:"summary"`
	Tier                 tier.ID      `json:"tier"`
	Totals               Totals       `json:"totals"`
	NextTierRequirements *tier.Advice `json:"nextTierRequirements,omitempty"`
}

// Kind implements Result.
func (*LineItemAdjustment) Kind() Kind { return KindLineItemAdjustment }

// AppliedTier implements Result.
func (l *LineItemAdjustment) AppliedTier() tier.ID { return l.Tier }

// Advice implements Result.
func (l *LineItemAdjustment) Advice() *tier.Advice { return l.NextTierRequirements }

func (*LineItemAdjustment) isResult() {}

// MarshalJSON adds the variant tag.
func (l *LineItemAdjustment) MarshalJSON() ([]byte, error) {
	type alias LineItemAdjustment
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{Type: KindLineItemAdjustment, alias: (*alias)(l)})
}

func rollup(adjustments []Adjustment) Totals {
	var t Totals
	for _, a := range adjustments {
		t.TotalDiscount += a.DiscountedTotal
		t.TotalSavings += a.Savings
		t.TotalQuantity += a.Quantity
		t.TotalOriginal += a.OriginalTotal
	}
	return t
}
