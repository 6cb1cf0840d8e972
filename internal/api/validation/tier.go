package validation

import (
	"github.com/daap14/coachgate/internal/tier"
)

// SetTierRequest mirrors the fields of PUT /users/{userID}/tier.
type SetTierRequest struct {
	Tier string
}

// ValidateSetTierRequest validates a tier assignment.
func ValidateSetTierRequest(req SetTierRequest) []FieldError {
	if req.Tier == "" {
		return []FieldError{{Field: "tier", Message: "tier is required"}}
	}
	if _, err := tier.Parse(req.Tier); err != nil {
		return []FieldError{{Field: "tier", Message: "tier must be one of: " + oneOf(tierNames())}}
	}
	return nil
}

func tierNames() []string {
	all := tier.All()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.String()
	}
	return names
}
