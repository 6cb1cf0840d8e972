package handler

import (
	"net/http"

	"github.com/daap14/coachgate/internal/api/middleware"
	"github.com/daap14/coachgate/internal/api/response"
	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/tier"
)

// CatalogReader is the part of *catalog.Catalog the handlers read.
type CatalogReader interface {
	Version() int
	Tools() []catalog.ToolPolicy
}

type tierResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Rank        int    `json:"rank"`
}

type quotaResponse struct {
	Limit  int64              `json:"limit"`
	Period catalog.PeriodKind `json:"period"`
}

type milestonesResponse struct {
	Version int      `json:"version"`
	Actions []string `json:"actions"`
}

type toolResponse struct {
	ID         catalog.ToolID      `json:"id"`
	Name       string              `json:"name"`
	Suite      string              `json:"suite,omitempty"`
	MinTier    tier.Tier           `json:"minTier"`
	Quota      *quotaResponse      `json:"quota,omitempty"`
	Milestones *milestonesResponse `json:"milestones,omitempty"`
}

type catalogResponse struct {
	Version int            `json:"version"`
	Tiers   []tierResponse `json:"tiers"`
	Tools   []toolResponse `json:"tools"`
}

func toToolResponse(p catalog.ToolPolicy) toolResponse {
	resp := toolResponse{
		ID:      p.ID,
		Name:    p.Name,
		Suite:   p.Suite,
		MinTier: p.MinTier,
	}
	if p.Metered() {
		resp.Quota = &quotaResponse{Limit: p.Quota.Limit, Period: p.Quota.Period}
	}
	if len(p.Milestones.Actions) > 0 {
		resp.Milestones = &milestonesResponse{Version: p.Milestones.Version, Actions: p.Milestones.Actions}
	}
	return resp
}

// CatalogHandler serves the tier ladder and tool policies.
type CatalogHandler struct {
	catalog CatalogReader
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// Get handles GET /catalog.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tiers := make([]tierResponse, 0, len(tier.All()))
	for _, t := range tier.All() {
		tiers = append(tiers, tierResponse{Name: t.String(), DisplayName: t.DisplayName(), Rank: t.Rank()})
	}

	policies := h.catalog.Tools()
	tools := make([]toolResponse, 0, len(policies))
	for _, p := range policies {
		tools = append(tools, toToolResponse(p))
	}

	response.Success(w, http.StatusOK, catalogResponse{
		Version: h.catalog.Version(),
		Tiers:   tiers,
		Tools:   tools,
	}, requestID)
}
