package tier

import (
	"strings"

	"github.com/noah-isme/wholesale-pricing/internal/money"
)

// ID identifies a wholesale pricing tier.
type ID string

const (
	// None means the cart does not qualify for wholesale pricing.
	None ID = ""
	// Tier1 is the lowest discount tier.
	Tier1 ID = "TIER_1"
	// Tier2 is the middle discount tier.
	Tier2 ID = "TIER_2"
	// Tier3 is the deepest discount tier.
	Tier3 ID = "TIER_3"
)

// Ordered lists tiers from the shallowest to the deepest discount.
var Ordered = []ID{Tier1, Tier2, Tier3}

// Rank orders tiers by discount depth; None ranks lowest.
func (id ID) Rank() int {
	switch id {
	case Tier1:
		return 1
	case Tier2:
		return 2
	case Tier3:
		return 3
	default:
		return 0
	}
}

// Valid reports whether id names a real tier.
func (id ID) Valid() bool { return id.Rank() > 0 }

// Label renders the tier for customers, e.g. "TIER 1".
func (id ID) Label() string {
	return strings.Replace(string(id), "_", " ", 1)
}

// Next returns the tier immediately above id, or None when id is the deepest tier.
func (id ID) Next() ID {
	switch id {
	case None:
		return Tier1
	case Tier1:
		return Tier2
	case Tier2:
		return Tier3
	default:
		return None
	}
}

// Parse converts a catalog key such as "TIER_2" into an ID.
func Parse(value string) (ID, bool) {
	id := ID(strings.ToUpper(strings.TrimSpace(value)))
	if !id.Valid() {
		return None, false
	}
	return id, true
}

// Requirement holds the thresholds of one tier. Zero fields are unused.
type Requirement struct {
	MinOrderValue      money.Minor `json:"minOrderValue"`
	MinQuantityPerItem int         `json:"minQuantityPerItem,omitempty"`
	MinItems           int         `json:"minItems,omitempty"`
	MaxItems           int         `json:"maxItems,omitempty"`
	MinLifetimeSpend   money.Minor `json:"minLifetimeSpend,omitempty"`
}

// Table maps every tier to its requirement record.
type Table map[ID]Requirement

// DefaultTable returns the storefront's standard wholesale thresholds.
func DefaultTable() Table {
	return Table{
		Tier1: {
			MinOrderValue:      money.MustDisplay("300").Minor(),
			MinQuantityPerItem: 3,
		},
		Tier2: {
			MinOrderValue:    money.MustDisplay("300").Minor(),
			MinItems:         12,
			MaxItems:         23,
			MinLifetimeSpend: money.MustDisplay("5000").Minor(),
		},
		Tier3: {
			MinOrderValue:    money.MustDisplay("100").Minor(),
			MinItems:         24,
			MinLifetimeSpend: money.MustDisplay("10000").Minor(),
		},
	}
}
