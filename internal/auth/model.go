package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role is what an API client may do.
type Role string

const (
	// RoleService may query and record entitlements.
	RoleService Role = "service"
	// RoleAdmin may additionally set tiers and manage clients.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleService || r == RoleAdmin
}

// Client represents a row in the api_clients table: a caller of the
// coachgate API such as the web backend or admin tooling.
type Client struct {
	ID           uuid.UUID
	Name         string
	Role         Role
	ApiKeyPrefix string
	ApiKeyHash   string
	CreatedAt    time.Time
	RevokedAt    *time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	ClientID   uuid.UUID
	ClientName string
	Role       Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
