// Package progress keeps the idempotent ledger of milestone completions and
// derives per-tool progress from it.
package progress

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/catalog"
)

// ErrEmptyActionKey is returned when a completion has no action key.
var ErrEmptyActionKey = errors.New("action key must not be empty")

// ErrInvalidMetadata is returned when completion metadata is not valid JSON.
var ErrInvalidMetadata = errors.New("metadata is not valid JSON")

// Event is the first recorded completion of an action. Events are never
// updated or deleted.
type Event struct {
	UserID          uuid.UUID
	ToolID          catalog.ToolID
	ActionKey       string
	FirstOccurredAt time.Time
	Metadata        json.RawMessage
}

// ToolProgress is a user's progress through a tool's milestones.
type ToolProgress struct {
	ToolID             catalog.ToolID `json:"toolId"`
	CompletedActions   []string       `json:"completedActions"`
	DefinedActions     []string       `json:"definedActions"`
	MilestoneVersion   int            `json:"milestoneVersion"`
	ProgressPercentage int            `json:"progressPercentage"`
}

// Percentage is floor(completed*100/defined), or 0 when nothing is defined.
func Percentage(completed, defined int) int {
	if defined == 0 {
		return 0
	}
	return completed * 100 / defined
}
