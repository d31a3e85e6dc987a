// Package access evaluates section-level content permissions from an
// effective membership tier. The decision is a pure function of its inputs;
// the floor-per-category mapping is configuration, not logic.
package access

import (
	"fmt"

	"server/internal/domain"
)

// Decision reasons, machine-readable so callers can render upgrade vs log-in
// messaging. Authentication state is the caller's to distinguish: a denied
// visitor without a credential is "unauthenticated", not "tier_too_low".
const (
	ReasonOK              = "ok"
	ReasonSampleContent   = "sample_content"
	ReasonTierTooLow      = "tier_too_low"
	ReasonUnauthenticated = "unauthenticated"
)

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Policy holds the section → minimum-tier floor table.
type Policy struct {
	floors       map[domain.Section]domain.Tier
	defaultFloor domain.Tier
}

// NewPolicy validates the floor table. Sections absent from the table fall
// back to defaultFloor.
func NewPolicy(floors map[domain.Section]domain.Tier, defaultFloor domain.Tier) (*Policy, error) {
	if len(floors) == 0 {
		return nil, fmt.Errorf("%w: section floor table is empty", domain.ErrNotConfigured)
	}
	if !defaultFloor.Valid() {
		return nil, fmt.Errorf("%w: default floor %q is not a tier", domain.ErrNotConfigured, defaultFloor)
	}
	for section, floor := range floors {
		if !floor.Valid() {
			return nil, fmt.Errorf("%w: floor %q for section %q is not a tier", domain.ErrNotConfigured, floor, section)
		}
	}
	copied := make(map[domain.Section]domain.Tier, len(floors))
	for section, floor := range floors {
		copied[section] = floor
	}
	return &Policy{floors: copied, defaultFloor: defaultFloor}, nil
}

// Floor returns the minimum tier for a section.
func (p *Policy) Floor(section domain.Section) domain.Tier {
	if floor, ok := p.floors[section]; ok {
		return floor
	}
	return p.defaultFloor
}

// Check decides whether the effective tier may view content in the section.
// sample marks content explicitly flagged for try-before-you-buy; it loosens
// the floor to visitor regardless of category and is never inferred.
func (p *Policy) Check(tier domain.Tier, section domain.Section, sample bool) Decision {
	if sample {
		return Decision{Allowed: true, Reason: ReasonSampleContent}
	}
	if tier.AtLeast(p.Floor(section)) {
		return Decision{Allowed: true, Reason: ReasonOK}
	}
	return Decision{Allowed: false, Reason: ReasonTierTooLow}
}
