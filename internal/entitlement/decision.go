// Package entitlement decides, per user and tool, whether a tool is
// unlocked, limited for the rest of its period, or locked behind an upgrade.
package entitlement

import (
	"errors"
	"time"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/tier"
)

// ErrUnknownSuite is returned for a suite name no tool belongs to.
var ErrUnknownSuite = errors.New("unknown suite")

// Level classifies a user's access to a tool.
type Level string

const (
	// Locked means only a tier upgrade gives access.
	Locked Level = "locked"
	// Limited means the tool is reachable on the user's tier but its quota
	// is used up until the next period.
	Limited Level = "limited"
	Unlocked Level = "unlocked"
)

// Decision is the outcome of an access check. Policy outcomes are always
// ordinary decisions; storage failures come back as an error next to a
// Locked decision.
type Decision struct {
	ToolID         catalog.ToolID     `json:"toolId"`
	Level          Level              `json:"level"`
	Remaining      *int64             `json:"remaining,omitempty"`
	Limit          *int64             `json:"limit,omitempty"`
	Period         catalog.PeriodKind `json:"period,omitempty"`
	ResetsAt       *time.Time         `json:"resetsAt,omitempty"`
	LockedMessage  string             `json:"lockedMessage,omitempty"`
	LimitedMessage string             `json:"limitedMessage,omitempty"`
	UpgradeTier    *tier.Tier         `json:"upgradeTier,omitempty"`
}

// Allowed reports whether the tool may be used now.
func (d Decision) Allowed() bool {
	return d.Level == Unlocked
}
