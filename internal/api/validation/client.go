package validation

import (
	"strings"

	"github.com/daap14/coachgate/internal/auth"
)

// CreateClientRequest mirrors the fields needed for create client validation.
type CreateClientRequest struct {
	Name string
	Role string
}

// ValidateCreateClientRequest validates the fields of a create client request.
func ValidateCreateClientRequest(req CreateClientRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if !nameRegex.MatchString(name) {
		errs = append(errs, FieldError{Field: "name", Message: "name must be lowercase alphanumeric with hyphens, 3-63 characters, starting with a letter"})
	} else if strings.Contains(name, "--") {
		errs = append(errs, FieldError{Field: "name", Message: "name must not contain consecutive hyphens"})
	}

	if req.Role == "" {
		errs = append(errs, FieldError{Field: "role", Message: "role is required"})
	} else if !auth.Role(req.Role).Valid() {
		errs = append(errs, FieldError{Field: "role", Message: "role must be one of: " + oneOf([]string{string(auth.RoleService), string(auth.RoleAdmin)})})
	}

	return errs
}
