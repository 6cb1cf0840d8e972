package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/catalog"
)

// ErrNotMetered is returned when counting usage of a tool without a quota.
var ErrNotMetered = errors.New("tool is not metered")

// PolicySource resolves tool policies. *catalog.Catalog implements it.
type PolicySource interface {
	PolicyFor(toolID catalog.ToolID) (catalog.ToolPolicy, error)
}

// Count is a counter interpreted against the tool's quota.
type Count struct {
	Count       int64              `json:"count"`
	Limit       int64              `json:"limit"`
	Period      catalog.PeriodKind `json:"period"`
	PeriodStart time.Time          `json:"periodStart"`
	ResetsAt    time.Time          `json:"resetsAt"`
}

// Remaining is the number of uses left in the period, never negative.
func (c Count) Remaining() int64 {
	if c.Count >= c.Limit {
		return 0
	}
	return c.Limit - c.Count
}

// Exhausted reports whether the quota for the period is used up.
func (c Count) Exhausted() bool {
	return c.Count >= c.Limit
}

// Meter applies tool quotas to a Store.
type Meter struct {
	store    Store
	policies PolicySource
}

// NewMeter creates a Meter.
func NewMeter(store Store, policies PolicySource) *Meter {
	return &Meter{store: store, policies: policies}
}

// Increment records one use of toolID by userID at now.
func (m *Meter) Increment(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, now time.Time) (Count, error) {
	quota, err := m.quotaFor(toolID)
	if err != nil {
		return Count{}, err
	}
	return m.IncrementQuota(ctx, userID, toolID, quota, now)
}

// IncrementQuota is Increment for a caller that already holds the quota.
func (m *Meter) IncrementQuota(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, quota catalog.Quota, now time.Time) (Count, error) {
	start, next, err := window(quota.Period, now)
	if err != nil {
		return Count{}, err
	}

	c, err := m.store.Increment(ctx, Key{UserID: userID, ToolID: toolID}, start, now)
	if err != nil {
		return Count{}, fmt.Errorf("incrementing usage of %s: %w", toolID, err)
	}

	return Count{
		Count:       c.Count,
		Limit:       quota.Limit,
		Period:      quota.Period,
		PeriodStart: start,
		ResetsAt:    next,
	}, nil
}

// Peek reports the usage of toolID by userID in the period containing now,
// without writing. A counter from another period reads as zero.
func (m *Meter) Peek(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, now time.Time) (Count, error) {
	quota, err := m.quotaFor(toolID)
	if err != nil {
		return Count{}, err
	}
	return m.PeekQuota(ctx, userID, toolID, quota, now)
}

// PeekQuota is Peek for a caller that already holds the quota.
func (m *Meter) PeekQuota(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, quota catalog.Quota, now time.Time) (Count, error) {
	start, next, err := window(quota.Period, now)
	if err != nil {
		return Count{}, err
	}

	count := Count{
		Limit:       quota.Limit,
		Period:      quota.Period,
		PeriodStart: start,
		ResetsAt:    next,
	}

	c, ok, err := m.store.Load(ctx, Key{UserID: userID, ToolID: toolID})
	if err != nil {
		return Count{}, fmt.Errorf("reading usage of %s: %w", toolID, err)
	}
	if !ok {
		return count, nil
	}

	switch {
	case c.PeriodStart.Equal(start):
		count.Count = c.Count
	case c.PeriodStart.After(start):
		slog.Warn("usage counter period starts in the future; treating as reset",
			"userId", userID, "toolId", toolID,
			"storedPeriodStart", c.PeriodStart, "expectedPeriodStart", start)
	}
	return count, nil
}

func (m *Meter) quotaFor(toolID catalog.ToolID) (catalog.Quota, error) {
	policy, err := m.policies.PolicyFor(toolID)
	if err != nil {
		return catalog.Quota{}, err
	}
	if !policy.Metered() {
		return catalog.Quota{}, fmt.Errorf("%w: %s", ErrNotMetered, toolID)
	}
	return *policy.Quota, nil
}

func window(kind catalog.PeriodKind, now time.Time) (time.Time, time.Time, error) {
	start, err := CurrentPeriodStart(kind, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	next, err := NextPeriodStart(kind, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, next, nil
}
