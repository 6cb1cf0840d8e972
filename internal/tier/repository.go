package tier

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the tier source: it reports the tier a user is on now.
// Users without a stored tier are on Free. Implementations never cache.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (Tier, error)
	Set(ctx context.Context, userID uuid.UUID, t Tier) error
}
