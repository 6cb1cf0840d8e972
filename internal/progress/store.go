package progress

import (
	"context"

	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/catalog"
)

// Store persists completion events. Failures to reach the backend are
// wrapped with storage.Unavailable.
type Store interface {
	// Insert stores e unless an event with the same user, tool and action
	// key exists. It reports whether e was written; a duplicate is not an
	// error and leaves the stored event untouched.
	Insert(ctx context.Context, e Event) (bool, error)

	// List returns the events of a user for a tool, oldest first.
	List(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID) ([]Event, error)
}
