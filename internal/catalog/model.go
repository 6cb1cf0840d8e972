// Package catalog is the closed registry of tools and the tier and quota
// policy each one is sold under. A catalog is deployment-time configuration:
// it is loaded and validated once at boot and never changes afterwards.
package catalog

import "github.com/daap14/coachgate/internal/tier"

// ToolID identifies one AI-assisted tool.
type ToolID string

// PeriodKind is the length of a quota's counting window.
type PeriodKind string

const (
	PeriodNone    PeriodKind = "none"
	PeriodDaily   PeriodKind = "daily"
	PeriodWeekly  PeriodKind = "weekly"
	PeriodMonthly PeriodKind = "monthly"
)

// Valid reports whether k is a known period kind.
func (k PeriodKind) Valid() bool {
	switch k {
	case PeriodNone, PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Quota caps usage of a tool within one period.
type Quota struct {
	Limit  int64
	Period PeriodKind
}

// Milestones is the versioned list of action keys that make up 100% progress
// for a tool.
type Milestones struct {
	Version int
	Actions []string
}

// Defines reports whether actionKey is one of the milestone actions.
func (m Milestones) Defines(actionKey string) bool {
	for _, a := range m.Actions {
		if a == actionKey {
			return true
		}
	}
	return false
}

// ToolPolicy is the static access policy of one tool.
type ToolPolicy struct {
	ID         ToolID
	Name       string
	Suite      string
	MinTier    tier.Tier
	Quota      *Quota // nil: binary gate at MinTier
	Milestones Milestones
}

// DisplayName is the tool's name, falling back to its id.
func (p ToolPolicy) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return string(p.ID)
}

// Metered reports whether the tool has a usage quota.
func (p ToolPolicy) Metered() bool {
	return p.Quota != nil
}
