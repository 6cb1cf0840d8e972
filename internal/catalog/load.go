package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/daap14/coachgate/internal/tier"
)

//go:embed default.yaml
var defaultCatalog []byte

type fileCatalog struct {
	Version int        `json:"version"`
	Tools   []fileTool `json:"tools"`
}

type fileTool struct {
	ID         ToolID          `json:"id"`
	Name       string          `json:"name"`
	Suite      string          `json:"suite"`
	MinTier    string          `json:"minTier"`
	Quota      *fileQuota      `json:"quota"`
	Milestones *fileMilestones `json:"milestones"`
}

type fileQuota struct {
	Limit  int64      `json:"limit"`
	Period PeriodKind `json:"period"`
}

type fileMilestones struct {
	Version int      `json:"version"`
	Actions []string `json:"actions"`
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads and parses a catalog YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a catalog document. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return nil, &ConfigError{Problems: []string{fmt.Sprintf("decoding catalog: %v", err)}}
	}

	cerr := &ConfigError{}
	policies := make([]ToolPolicy, 0, len(fc.Tools))
	for _, ft := range fc.Tools {
		minTier, err := tier.Parse(ft.MinTier)
		if err != nil {
			cerr.add("tool %q: %v", ft.ID, err)
			continue
		}

		p := ToolPolicy{
			ID:      ft.ID,
			Name:    ft.Name,
			Suite:   ft.Suite,
			MinTier: minTier,
		}
		if ft.Quota != nil {
			p.Quota = &Quota{Limit: ft.Quota.Limit, Period: ft.Quota.Period}
		}
		if ft.Milestones != nil {
			p.Milestones = Milestones{Version: ft.Milestones.Version, Actions: ft.Milestones.Actions}
		}
		policies = append(policies, p)
	}
	if len(cerr.Problems) > 0 {
		return nil, cerr
	}

	return New(fc.Version, policies)
}
