package catalog

import "fmt"

// Catalog is an immutable, validated set of tool policies.
type Catalog struct {
	version int
	tools   []ToolPolicy
	byID    map[ToolID]int
}

// New builds a catalog from policies. An empty policy list is rejected, as are
// duplicate ids, invalid tiers, malformed quotas and duplicate milestone
// actions.
func New(version int, policies []ToolPolicy) (*Catalog, error) {
	cerr := &ConfigError{}
	c := &Catalog{
		version: version,
		tools:   make([]ToolPolicy, 0, len(policies)),
		byID:    make(map[ToolID]int, len(policies)),
	}
	if len(policies) == 0 {
		cerr.add("catalog declares no tools")
	}

	for _, p := range policies {
		if p.ID == "" {
			cerr.add("tool without id")
			continue
		}
		if _, dup := c.byID[p.ID]; dup {
			cerr.add("tool %q declared twice", p.ID)
			continue
		}
		validatePolicy(cerr, p)

		c.byID[p.ID] = len(c.tools)
		c.tools = append(c.tools, clonePolicy(p))
	}

	if err := cerr.errOrNil(); err != nil {
		return nil, err
	}
	return c, nil
}

func validatePolicy(cerr *ConfigError, p ToolPolicy) {
	if !p.MinTier.Valid() {
		cerr.add("tool %q: unknown minTier %s", p.ID, p.MinTier)
	}
	if q := p.Quota; q != nil {
		if q.Limit < 1 {
			cerr.add("tool %q: quota limit must be at least 1, got %d", p.ID, q.Limit)
		}
		if !q.Period.Valid() || q.Period == PeriodNone {
			cerr.add("tool %q: quota period must be daily, weekly or monthly, got %q", p.ID, q.Period)
		}
	}
	seen := make(map[string]bool, len(p.Milestones.Actions))
	for _, a := range p.Milestones.Actions {
		if a == "" {
			cerr.add("tool %q: empty milestone action", p.ID)
			continue
		}
		if seen[a] {
			cerr.add("tool %q: milestone action %q declared twice", p.ID, a)
		}
		seen[a] = true
	}
}

func clonePolicy(p ToolPolicy) ToolPolicy {
	if p.Quota != nil {
		q := *p.Quota
		p.Quota = &q
	}
	p.Milestones.Actions = append([]string(nil), p.Milestones.Actions...)
	return p
}

// Version is the catalog's declared version.
func (c *Catalog) Version() int {
	return c.version
}

// PolicyFor returns the policy of toolID.
func (c *Catalog) PolicyFor(toolID ToolID) (ToolPolicy, error) {
	i, ok := c.byID[toolID]
	if !ok {
		return ToolPolicy{}, fmt.Errorf("%w: %q", ErrUnknownTool, toolID)
	}
	return clonePolicy(c.tools[i]), nil
}

// Has reports whether toolID has a policy.
func (c *Catalog) Has(toolID ToolID) bool {
	_, ok := c.byID[toolID]
	return ok
}

// Tools returns every policy in declaration order.
func (c *Catalog) Tools() []ToolPolicy {
	out := make([]ToolPolicy, len(c.tools))
	for i, p := range c.tools {
		out[i] = clonePolicy(p)
	}
	return out
}

// Suite returns the policies belonging to suite, in declaration order.
func (c *Catalog) Suite(suite string) []ToolPolicy {
	var out []ToolPolicy
	for _, p := range c.tools {
		if p.Suite == suite {
			out = append(out, clonePolicy(p))
		}
	}
	return out
}

// Validate is the boot-time completeness check: every tool id referenced by
// the application must have a policy.
func (c *Catalog) Validate(required []ToolID) error {
	cerr := &ConfigError{}
	for _, id := range required {
		if !c.Has(id) {
			cerr.add("required tool %q has no policy", id)
		}
	}
	return cerr.errOrNil()
}
