package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/storage"
	"github.com/daap14/coachgate/internal/tier"
	"github.com/daap14/coachgate/internal/usage"
)

// decideAllConcurrency bounds the counter reads DecideAll runs at once.
const decideAllConcurrency = 4

// Catalog is the part of *catalog.Catalog the engine needs.
type Catalog interface {
	PolicyFor(toolID catalog.ToolID) (catalog.ToolPolicy, error)
	Tools() []catalog.ToolPolicy
	Suite(name string) []catalog.ToolPolicy
}

// Messages renders the user-facing copy of a decision.
type Messages interface {
	Locked(ctx context.Context, policy catalog.ToolPolicy) string
	Limited(ctx context.Context, policy catalog.ToolPolicy, count usage.Count) string
}

// Observer is notified of decisions, recorded usage and storage failures.
type Observer interface {
	DecisionMade(toolID catalog.ToolID, level Level)
	UsageRecorded(toolID catalog.ToolID)
	StorageFailed(op string)
}

// Engine evaluates access decisions against the catalog, the tier source
// and the usage meter.
type Engine struct {
	catalog  Catalog
	meter    *usage.Meter
	tiers    tier.Repository
	messages Messages
	observer Observer
}

// NewEngine creates an Engine. messages and observer may be nil.
func NewEngine(c Catalog, meter *usage.Meter, tiers tier.Repository, messages Messages, observer Observer) *Engine {
	return &Engine{
		catalog:  c,
		meter:    meter,
		tiers:    tiers,
		messages: messages,
		observer: observer,
	}
}

// Decide classifies userID's access to toolID for a user on userTier at now.
// It reads the usage counter but never writes it.
func (e *Engine) Decide(ctx context.Context, userID uuid.UUID, userTier tier.Tier, toolID catalog.ToolID, now time.Time) (Decision, error) {
	policy, err := e.catalog.PolicyFor(toolID)
	if err != nil {
		return Decision{}, err
	}
	return e.decide(ctx, userID, userTier, policy, now)
}

func (e *Engine) decide(ctx context.Context, userID uuid.UUID, userTier tier.Tier, policy catalog.ToolPolicy, now time.Time) (Decision, error) {
	if !userTier.AtLeast(policy.MinTier) {
		return e.observe(e.locked(ctx, policy)), nil
	}
	if !policy.Metered() {
		return e.observe(Decision{ToolID: policy.ID, Level: Unlocked}), nil
	}

	count, err := e.meter.PeekQuota(ctx, userID, policy.ID, *policy.Quota, now)
	if err != nil {
		return e.failClosed(policy.ID, "peek usage", err)
	}
	return e.observe(e.classify(ctx, policy, count)), nil
}

// DecideForUser is Decide with the tier read from the tier source. The tier
// is looked up on every call, so a downgrade takes effect immediately.
func (e *Engine) DecideForUser(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, now time.Time) (Decision, error) {
	policy, err := e.catalog.PolicyFor(toolID)
	if err != nil {
		return Decision{}, err
	}

	userTier, err := e.tiers.Get(ctx, userID)
	if err != nil {
		return e.failClosed(toolID, "get tier", err)
	}
	return e.decide(ctx, userID, userTier, policy, now)
}

// DecideAll decides access to every tool in catalog order, reading the
// user's tier once.
func (e *Engine) DecideAll(ctx context.Context, userID uuid.UUID, now time.Time) ([]Decision, error) {
	return e.decideMany(ctx, userID, e.catalog.Tools(), now)
}

// DecideSuite decides access to every tool of a suite.
func (e *Engine) DecideSuite(ctx context.Context, userID uuid.UUID, suite string, now time.Time) ([]Decision, error) {
	policies := e.catalog.Suite(suite)
	if len(policies) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSuite, suite)
	}
	return e.decideMany(ctx, userID, policies, now)
}

func (e *Engine) decideMany(ctx context.Context, userID uuid.UUID, policies []catalog.ToolPolicy, now time.Time) ([]Decision, error) {
	userTier, err := e.tiers.Get(ctx, userID)
	if err != nil {
		e.storageFailed("get tier")
		return nil, fmt.Errorf("resolving tier: %w", err)
	}

	out := make([]Decision, len(policies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(decideAllConcurrency)
	for i, policy := range policies {
		g.Go(func() error {
			d, err := e.decide(gctx, userID, userTier, policy, now)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// UsageResult is the outcome of RecordUsage.
type UsageResult struct {
	Recorded bool        `json:"recorded"`
	Count    usage.Count `json:"usage"`
	Decision Decision    `json:"decision"`
}

// RecordUsage counts one execution of a metered tool. Users below the tool's
// minimum tier are refused with a Locked decision and nothing is counted.
// The counter is not capped: the returned decision reports Limited once the
// quota is used up.
func (e *Engine) RecordUsage(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, now time.Time) (UsageResult, error) {
	policy, err := e.catalog.PolicyFor(toolID)
	if err != nil {
		return UsageResult{}, err
	}
	if !policy.Metered() {
		return UsageResult{}, fmt.Errorf("%w: %s", usage.ErrNotMetered, toolID)
	}

	userTier, err := e.tiers.Get(ctx, userID)
	if err != nil {
		d, ferr := e.failClosed(toolID, "get tier", err)
		return UsageResult{Decision: d}, ferr
	}
	if !userTier.AtLeast(policy.MinTier) {
		return UsageResult{Decision: e.observe(e.locked(ctx, policy))}, nil
	}

	count, err := e.meter.IncrementQuota(ctx, userID, toolID, *policy.Quota, now)
	if err != nil {
		d, ferr := e.failClosed(toolID, "increment usage", err)
		return UsageResult{Decision: d}, ferr
	}
	if e.observer != nil {
		e.observer.UsageRecorded(toolID)
	}

	d := e.observe(e.classify(ctx, policy, count))
	if !d.Allowed() {
		slog.Info("usage recorded past quota", "userId", userID, "toolId", toolID, "count", count.Count, "limit", count.Limit)
	}
	return UsageResult{Recorded: true, Count: count, Decision: d}, nil
}

func (e *Engine) classify(ctx context.Context, policy catalog.ToolPolicy, count usage.Count) Decision {
	limit := count.Limit
	remaining := count.Remaining()
	resetsAt := count.ResetsAt

	d := Decision{
		ToolID:    policy.ID,
		Level:     Unlocked,
		Remaining: &remaining,
		Limit:     &limit,
		Period:    count.Period,
		ResetsAt:  &resetsAt,
	}
	if count.Exhausted() {
		d.Level = Limited
		if e.messages != nil {
			d.LimitedMessage = e.messages.Limited(ctx, policy, count)
		}
	}
	return d
}

func (e *Engine) locked(ctx context.Context, policy catalog.ToolPolicy) Decision {
	upgrade := policy.MinTier
	d := Decision{
		ToolID:      policy.ID,
		Level:       Locked,
		UpgradeTier: &upgrade,
	}
	if e.messages != nil {
		d.LockedMessage = e.messages.Locked(ctx, policy)
	}
	return d
}

// failClosed never grants access when the backing store fails. The error
// keeps storage.ErrUnavailable in its chain so callers can tell it apart
// from a policy outcome.
func (e *Engine) failClosed(toolID catalog.ToolID, op string, err error) (Decision, error) {
	if errors.Is(err, storage.ErrUnavailable) {
		e.storageFailed(op)
	}
	return Decision{ToolID: toolID, Level: Locked}, fmt.Errorf("deciding access to %s: %w", toolID, err)
}

func (e *Engine) storageFailed(op string) {
	if e.observer != nil {
		e.observer.StorageFailed(op)
	}
}

func (e *Engine) observe(d Decision) Decision {
	if e.observer != nil {
		e.observer.DecisionMade(d.ToolID, d.Level)
	}
	return d
}
