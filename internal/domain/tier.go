package domain

import "fmt"

// Tier enumerates membership levels in ascending order of entitlement.
type Tier string

const (
	TierVisitor   Tier = "visitor"
	TierTrial     Tier = "trial"
	TierQuarterly Tier = "quarterly"
	TierYearly    Tier = "yearly"
	TierLifetime  Tier = "lifetime"
)

var tierRank = map[Tier]int{
	TierVisitor:   0,
	TierTrial:     1,
	TierQuarterly: 2,
	TierYearly:    3,
	TierLifetime:  4,
}

var tierLabels = map[Tier]string{
	TierVisitor:   "Visitor",
	TierTrial:     "Free Trial",
	TierQuarterly: "Quarterly Member",
	TierYearly:    "Yearly Member",
	TierLifetime:  "Lifetime Member",
}

// Tiers returns all tiers in ascending order.
func Tiers() []Tier {
	return []Tier{TierVisitor, TierTrial, TierQuarterly, TierYearly, TierLifetime}
}

// ParseTier validates a raw tier value.
func ParseTier(raw string) (Tier, error) {
	t := Tier(raw)
	if _, ok := tierRank[t]; !ok {
		return "", fmt.Errorf("unknown tier %q", raw)
	}
	return t, nil
}

// AtLeast reports whether t ranks at or above other in the tier order.
func (t Tier) AtLeast(other Tier) bool {
	return tierRank[t] >= tierRank[other]
}

// Label returns the human-readable name of the tier.
func (t Tier) Label() string {
	if label, ok := tierLabels[t]; ok {
		return label
	}
	return tierLabels[TierVisitor]
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}
