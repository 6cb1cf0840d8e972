// Package tier defines the ordered subscription tiers and the repositories
// that answer "which tier is this user on right now".
package tier

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTier is returned when a tier name is not part of the tier order.
var ErrUnknownTier = errors.New("unknown tier")

// Tier is a subscription level. Tiers compare by rank, never by name.
type Tier int

const (
	Free Tier = iota
	Kickstart
	Sociaal
	Core
	Transformatie
	Pro
	Premium
	VIP
)

var names = []string{
	"free",
	"kickstart",
	"sociaal",
	"core",
	"transformatie",
	"pro",
	"premium",
	"vip",
}

var displayNames = []string{
	"Free",
	"Kickstart",
	"Sociaal",
	"Core",
	"Transformatie",
	"Pro",
	"Premium",
	"VIP",
}

// All returns every tier in ascending order.
func All() []Tier {
	tiers := make([]Tier, len(names))
	for i := range names {
		tiers[i] = Tier(i)
	}
	return tiers
}

// Parse resolves a tier name, case-insensitively.
func Parse(s string) (Tier, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == name {
			return Tier(i), nil
		}
	}
	return Free, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// Rank is the tier's position in the tier order.
func (t Tier) Rank() int {
	return int(t)
}

// Valid reports whether t is one of the declared tiers.
func (t Tier) Valid() bool {
	return t >= Free && int(t) < len(names)
}

// AtLeast reports whether t ranks at or above other.
func (t Tier) AtLeast(other Tier) bool {
	return t.Rank() >= other.Rank()
}

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return names[t]
}

// DisplayName is the name shown in upgrade copy.
func (t Tier) DisplayName() string {
	if !t.Valid() {
		return t.String()
	}
	return displayNames[t]
}

// MarshalText encodes the tier as its name.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	return []byte(names[t]), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
