// Package validation checks request input at the API edge and reports every
// problem as a FieldError.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	nameRegex      = regexp.MustCompile(`^[a-z][a-z0-9-]{1,61}[a-z0-9]$`)
	actionKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateUUID checks a path or body value that must be a UUID.
func ValidateUUID(field, value string) []FieldError {
	if value == "" {
		return []FieldError{{Field: field, Message: field + " is required"}}
	}
	if _, err := uuid.Parse(value); err != nil {
		return []FieldError{{Field: field, Message: field + " must be a valid UUID"}}
	}
	return nil
}

// oneOf formats the allowed values of an enum field.
func oneOf(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
