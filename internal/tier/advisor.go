package tier

import (
	"fmt"
	"strings"

	"github.com/noah-isme/wholesale-pricing/internal/money"
)

// Gap lists how far the cart is from each threshold of the next tier.
// Every field is max(0, target - current).
type Gap struct {
	MinOrderValue    money.Minor `json:"minOrderValue"`
	MinItems         int         `json:"minItems"`
	MinLifetimeSpend money.Minor `json:"minLifetimeSpend"`
}

// Advice is the next-tier progress block attached to every discount result.
type Advice struct {
	CurrentTier  ID     `json:"currentTier,omitempty"`
	NextTier     ID     `json:"nextTier,omitempty"`
	Requirements Gap    `json:"requirements"`
	Message      string `json:"message"`
}

// MaxTierMessage is shown once the deepest tier applies.
const MaxTierMessage = "You have reached the maximum wholesale tier"

// NextTierGap computes the distance from the current cart to the tier above
// current. The gap dimensions are alternative paths, so the message joins them
// with OR. Tier 1's quantity path has no numeric gap and is left out.
func (t Table) NextTierGap(cartTotal money.Minor, itemCount int, lifetimeSpend money.Minor, current ID) Advice {
	advice := Advice{CurrentTier: current}
	next := current.Next()
	if next == None {
		advice.Message = MaxTierMessage
		return advice
	}
	advice.NextTier = next

	req := t[next]
	gap := Gap{MinOrderValue: (req.MinOrderValue - cartTotal).NonNegative()}
	if next != Tier1 {
		if req.MinItems > itemCount {
			gap.MinItems = req.MinItems - itemCount
		}
		gap.MinLifetimeSpend = (req.MinLifetimeSpend - lifetimeSpend).NonNegative()
	}
	advice.Requirements = gap
	advice.Message = gap.message(next)
	return advice
}

func (g Gap) message(next ID) string {
	var clauses []string
	if g.MinOrderValue > 0 {
		clauses = append(clauses, fmt.Sprintf("Add %s more", g.MinOrderValue.Dollars()))
	}
	if g.MinItems > 0 {
		clauses = append(clauses, fmt.Sprintf("Add %d more items", g.MinItems))
	}
	if g.MinLifetimeSpend > 0 {
		clauses = append(clauses, fmt.Sprintf("Spend %s more lifetime", g.MinLifetimeSpend.Dollars()))
	}
	if len(clauses) == 0 {
		return fmt.Sprintf("You qualify for %s pricing", next.Label())
	}
	return fmt.Sprintf("%s to qualify for %s pricing", strings.Join(clauses, " OR "), next.Label())
}
