package tier

import "github.com/noah-isme/wholesale-pricing/internal/money"

// Input carries the cart metrics and customer history used for tier resolution.
type Input struct {
	CartTotal     money.Minor
	ItemCount     int
	LifetimeSpend money.Minor
	SKUQuantities map[string]int
}

// Tier1Reason records why tier 1 was granted.
type Tier1Reason string

const (
	// ReasonMinimumQuantity means at least one SKU reached the per-item quantity.
	ReasonMinimumQuantity Tier1Reason = "minimum_quantity"
	// ReasonMinimumTotal means the cart total reached the tier 1 order value.
	ReasonMinimumTotal Tier1Reason = "minimum_total"
)

// Tier1Eligibility is the outcome of the tier 1 check along with the facts behind it.
type Tier1Eligibility struct {
	Eligible       bool           `json:"eligible"`
	Reason         Tier1Reason    `json:"reason,omitempty"`
	HasMinQuantity bool           `json:"hasMinQuantity"`
	MeetsMinTotal  bool           `json:"meetsMinTotal"`
	CartTotal      money.Minor    `json:"cartTotal"`
	ItemQuantities map[string]int `json:"itemQuantities"`
}

// CheckTier1 evaluates tier 1: any base SKU at or above the per-item quantity,
// or a cart total at or above the tier 1 order value. The quantity reason wins
// when both hold.
func (t Table) CheckTier1(skuQuantities map[string]int, cartTotal money.Minor) Tier1Eligibility {
	req := t[Tier1]
	hasMinQuantity := false
	if req.MinQuantityPerItem > 0 {
		for _, qty := range skuQuantities {
			if qty >= req.MinQuantityPerItem {
				hasMinQuantity = true
				break
			}
		}
	}
	meetsMinTotal := cartTotal >= req.MinOrderValue

	out := Tier1Eligibility{
		Eligible:       hasMinQuantity || meetsMinTotal,
		HasMinQuantity: hasMinQuantity,
		MeetsMinTotal:  meetsMinTotal,
		CartTotal:      cartTotal,
		ItemQuantities: skuQuantities,
	}
	switch {
	case hasMinQuantity:
		out.Reason = ReasonMinimumQuantity
	case meetsMinTotal:
		out.Reason = ReasonMinimumTotal
	}
	return out
}

// Determine selects the deepest qualifying tier, checking tier 3 first so a
// cart is never downgraded. It returns None when nothing qualifies.
//
//	tier 3: total >= min order AND (items >= min items OR lifetime >= min spend)
//	tier 2: total >= min order AND (min items <= items <= max items OR lifetime >= min spend)
//	tier 1: see CheckTier1
func (t Table) Determine(in Input) ID {
	if r, ok := t[Tier3]; ok {
		if in.CartTotal >= r.MinOrderValue && (r.itemsWithin(in.ItemCount) || r.spendMet(in.LifetimeSpend)) {
			return Tier3
		}
	}
	if r, ok := t[Tier2]; ok {
		if in.CartTotal >= r.MinOrderValue && (r.itemsWithin(in.ItemCount) || r.spendMet(in.LifetimeSpend)) {
			return Tier2
		}
	}
	if _, ok := t[Tier1]; ok && t.CheckTier1(in.SKUQuantities, in.CartTotal).Eligible {
		return Tier1
	}
	return None
}

func (r Requirement) itemsWithin(count int) bool {
	if r.MinItems <= 0 {
		return false
	}
	if count < r.MinItems {
		return false
	}
	return r.MaxItems <= 0 || count <= r.MaxItems
}

func (r Requirement) spendMet(spend money.Minor) bool {
	return r.MinLifetimeSpend > 0 && spend >= r.MinLifetimeSpend
}
