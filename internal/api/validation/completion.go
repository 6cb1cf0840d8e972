package validation

import (
	"encoding/json"
	"strings"
)

const (
	maxActionKeyLen = 64
	maxMetadataLen  = 4096
)

// CompletionRequest mirrors the fields of POST .../completions.
type CompletionRequest struct {
	ActionKey string
	Metadata  json.RawMessage
}

// ValidateCompletionRequest validates a milestone completion.
func ValidateCompletionRequest(req CompletionRequest) []FieldError {
	var errs []FieldError

	key := strings.TrimSpace(req.ActionKey)
	switch {
	case key == "":
		errs = append(errs, FieldError{Field: "actionKey", Message: "actionKey is required"})
	case len(key) > maxActionKeyLen:
		errs = append(errs, FieldError{Field: "actionKey", Message: "actionKey must be at most 64 characters"})
	case !actionKeyRegex.MatchString(key):
		errs = append(errs, FieldError{Field: "actionKey", Message: "actionKey must be lowercase snake_case, starting with a letter"})
	}

	if len(req.Metadata) > 0 && string(req.Metadata) != "null" {
		if len(req.Metadata) > maxMetadataLen {
			errs = append(errs, FieldError{Field: "metadata", Message: "metadata must be at most 4096 bytes"})
		} else if !isObject(req.Metadata) {
			errs = append(errs, FieldError{Field: "metadata", Message: "metadata must be a JSON object"})
		}
	}

	return errs
}

func isObject(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}
