// Package advisor projects the catalog onto a tier for upgrade copy: which
// tools stay locked and which tier unlocks them. It is never used for gating.
package advisor

import (
	"sort"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/tier"
)

// Catalog is the part of *catalog.Catalog the advisor needs.
type Catalog interface {
	PolicyFor(toolID catalog.ToolID) (catalog.ToolPolicy, error)
	Tools() []catalog.ToolPolicy
}

// Advisor answers upgrade questions from the catalog alone.
type Advisor struct {
	catalog Catalog
}

func New(c Catalog) *Advisor {
	return &Advisor{catalog: c}
}

// LockedToolsForTier returns the tools whose minimum tier ranks above t,
// in catalog order.
func (a *Advisor) LockedToolsForTier(t tier.Tier) []catalog.ToolID {
	var locked []catalog.ToolID
	for _, p := range a.catalog.Tools() {
		if !t.AtLeast(p.MinTier) {
			locked = append(locked, p.ID)
		}
	}
	return locked
}

// CheapestUnlockFor returns the lowest tier that unlocks toolID, which is
// its minimum tier.
func (a *Advisor) CheapestUnlockFor(toolID catalog.ToolID) (tier.Tier, error) {
	p, err := a.catalog.PolicyFor(toolID)
	if err != nil {
		return tier.Free, err
	}
	return p.MinTier, nil
}

// Step is one rung of an upgrade plan: the tools that unlock at Tier.
type Step struct {
	Tier  tier.Tier
	Tools []catalog.ToolPolicy
}

// Plan groups the tools locked for t by the tier that unlocks them,
// cheapest tier first.
func (a *Advisor) Plan(t tier.Tier) []Step {
	byTier := make(map[tier.Tier][]catalog.ToolPolicy)
	for _, p := range a.catalog.Tools() {
		if !t.AtLeast(p.MinTier) {
			byTier[p.MinTier] = append(byTier[p.MinTier], p)
		}
	}

	steps := make([]Step, 0, len(byTier))
	for unlock, tools := range byTier {
		steps = append(steps, Step{Tier: unlock, Tools: tools})
	}
	sort.Slice(steps, func(i, j int) bool {
		return steps[i].Tier.Rank() < steps[j].Tier.Rank()
	})
	return steps
}
