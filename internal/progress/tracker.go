package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/daap14/coachgate/internal/catalog"
)

// overviewConcurrency bounds the store reads Overview runs at once.
const overviewConcurrency = 4

// Catalog is the part of *catalog.Catalog the tracker needs.
type Catalog interface {
	PolicyFor(toolID catalog.ToolID) (catalog.ToolPolicy, error)
	Tools() []catalog.ToolPolicy
}

// Observer is notified of every completion call.
type Observer interface {
	CompletionMarked(toolID catalog.ToolID, newlyRecorded bool)
}

// Tracker records milestone completions and computes progress.
type Tracker struct {
	store    Store
	catalog  Catalog
	observer Observer
}

// NewTracker creates a Tracker. observer may be nil.
func NewTracker(store Store, c Catalog, observer Observer) *Tracker {
	return &Tracker{store: store, catalog: c, observer: observer}
}

// MarkCompleted records that userID performed actionKey in toolID. It
// returns true only for the call that wrote the event; repeated calls,
// including concurrent ones, return false and keep the first metadata.
// Action keys outside the tool's milestone list are recorded but do not
// count toward progress.
func (t *Tracker) MarkCompleted(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, actionKey string, metadata json.RawMessage, now time.Time) (bool, error) {
	policy, err := t.catalog.PolicyFor(toolID)
	if err != nil {
		return false, err
	}
	if actionKey == "" {
		return false, ErrEmptyActionKey
	}
	if len(metadata) > 0 && !json.Valid(metadata) {
		return false, fmt.Errorf("%w: %s/%s", ErrInvalidMetadata, toolID, actionKey)
	}
	if !policy.Milestones.Defines(actionKey) {
		slog.Debug("completion outside milestone list", "toolId", toolID, "actionKey", actionKey, "milestoneVersion", policy.Milestones.Version)
	}

	created, err := t.store.Insert(ctx, Event{
		UserID:          userID,
		ToolID:          toolID,
		ActionKey:       actionKey,
		FirstOccurredAt: now.UTC(),
		Metadata:        metadata,
	})
	if err != nil {
		return false, fmt.Errorf("recording completion %s/%s: %w", toolID, actionKey, err)
	}

	if t.observer != nil {
		t.observer.CompletionMarked(toolID, created)
	}
	return created, nil
}

// ProgressFor computes the progress of userID through toolID's milestones.
func (t *Tracker) ProgressFor(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID) (ToolProgress, error) {
	policy, err := t.catalog.PolicyFor(toolID)
	if err != nil {
		return ToolProgress{}, err
	}
	return t.progressFor(ctx, userID, policy)
}

// Overview computes progress for every tool in the catalog, in catalog order.
func (t *Tracker) Overview(ctx context.Context, userID uuid.UUID) ([]ToolProgress, error) {
	tools := t.catalog.Tools()
	out := make([]ToolProgress, len(tools))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, policy := range tools {
		g.Go(func() error {
			p, err := t.progressFor(ctx, userID, policy)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tracker) progressFor(ctx context.Context, userID uuid.UUID, policy catalog.ToolPolicy) (ToolProgress, error) {
	events, err := t.store.List(ctx, userID, policy.ID)
	if err != nil {
		return ToolProgress{}, fmt.Errorf("listing completions of %s: %w", policy.ID, err)
	}

	recorded := make(map[string]bool, len(events))
	for _, e := range events {
		recorded[e.ActionKey] = true
	}

	defined := policy.Milestones.Actions
	completed := make([]string, 0, len(defined))
	for _, a := range defined {
		if recorded[a] {
			completed = append(completed, a)
		}
	}

	return ToolProgress{
		ToolID:             policy.ID,
		CompletedActions:   completed,
		DefinedActions:     defined,
		MilestoneVersion:   policy.Milestones.Version,
		ProgressPercentage: Percentage(len(completed), len(defined)),
	}, nil
}
