package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/coachgate/internal/advisor"
	"github.com/daap14/coachgate/internal/api/middleware"
	"github.com/daap14/coachgate/internal/api/response"
	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/tier"
)

// Advisor is the part of *advisor.Advisor the upgrade handlers use.
type Advisor interface {
	LockedToolsForTier(t tier.Tier) []catalog.ToolID
	CheapestUnlockFor(toolID catalog.ToolID) (tier.Tier, error)
	Plan(t tier.Tier) []advisor.Step
}

// UpgradeCopy renders upgrade plan lines in the request's language.
type UpgradeCopy interface {
	UpgradeStep(ctx context.Context, to tier.Tier, toolNames []string) string
}

type planStepResponse struct {
	Tier        tier.Tier        `json:"tier"`
	DisplayName string           `json:"displayName"`
	Tools       []catalog.ToolID `json:"tools"`
	Message     string           `json:"message"`
}

type planResponse struct {
	CurrentTier tier.Tier          `json:"currentTier"`
	Steps       []planStepResponse `json:"steps"`
}

type lockedToolsResponse struct {
	Tier        tier.Tier        `json:"tier"`
	LockedTools []catalog.ToolID `json:"lockedTools"`
}

type unlockTierResponse struct {
	ToolID      catalog.ToolID `json:"toolId"`
	Tier        tier.Tier      `json:"tier"`
	DisplayName string         `json:"displayName"`
}

// UpgradeHandler serves the advisor's projections.
type UpgradeHandler struct {
	advisor  Advisor
	tiers    tier.Repository
	messages UpgradeCopy
}

// NewUpgradeHandler creates a new UpgradeHandler.
func NewUpgradeHandler(a Advisor, tiers tier.Repository, messages UpgradeCopy) *UpgradeHandler {
	return &UpgradeHandler{advisor: a, tiers: tiers, messages: messages}
}

// Plan handles GET /users/{userID}/upgrade.
func (h *UpgradeHandler) Plan(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	current, err := h.tiers.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, "Failed to build upgrade plan")
		return
	}

	plan := h.advisor.Plan(current)
	steps := make([]planStepResponse, 0, len(plan))
	for _, s := range plan {
		ids := make([]catalog.ToolID, 0, len(s.Tools))
		names := make([]string, 0, len(s.Tools))
		for _, p := range s.Tools {
			ids = append(ids, p.ID)
			names = append(names, p.DisplayName())
		}
		step := planStepResponse{
			Tier:        s.Tier,
			DisplayName: s.Tier.DisplayName(),
			Tools:       ids,
		}
		if h.messages != nil {
			step.Message = h.messages.UpgradeStep(r.Context(), s.Tier, names)
		}
		steps = append(steps, step)
	}

	response.Success(w, http.StatusOK, planResponse{CurrentTier: current, Steps: steps}, middleware.GetRequestID(r.Context()))
}

// LockedTools handles GET /tiers/{tier}/locked-tools.
func (h *UpgradeHandler) LockedTools(w http.ResponseWriter, r *http.Request) {
	t, err := tier.Parse(chi.URLParam(r, "tier"))
	if err != nil {
		writeError(w, r, err, "Failed to list locked tools")
		return
	}

	locked := h.advisor.LockedToolsForTier(t)
	if locked == nil {
		locked = []catalog.ToolID{}
	}
	response.Success(w, http.StatusOK, lockedToolsResponse{Tier: t, LockedTools: locked}, middleware.GetRequestID(r.Context()))
}

// UnlockTier handles GET /tools/{toolID}/unlock-tier.
func (h *UpgradeHandler) UnlockTier(w http.ResponseWriter, r *http.Request) {
	toolID := toolIDParam(r)

	t, err := h.advisor.CheapestUnlockFor(toolID)
	if err != nil {
		writeError(w, r, err, "Failed to find unlock tier")
		return
	}

	response.Success(w, http.StatusOK, unlockTierResponse{
		ToolID:      toolID,
		Tier:        t,
		DisplayName: t.DisplayName(),
	}, middleware.GetRequestID(r.Context()))
}
