package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTool is returned when a tool id has no registered policy.
var ErrUnknownTool = errors.New("unknown tool")

// ErrInvalidCatalog is matched by every *ConfigError.
var ErrInvalidCatalog = errors.New("invalid catalog")

// ConfigError lists every problem found while loading or validating a catalog.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid catalog: %s", strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidCatalog
}

func (e *ConfigError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ConfigError) errOrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
