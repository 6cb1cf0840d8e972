package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// KeyPrefix starts every coachgate API key.
const KeyPrefix = "cg_"

// ErrInvalidKey is returned when the provided API key does not match any active client.
var ErrInvalidKey = errors.New("invalid or revoked API key")

// Service provides authentication operations.
type Service struct {
	clientRepo ClientRepository
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(clientRepo ClientRepository, bcryptCost int) *Service {
	return &Service{
		clientRepo: clientRepo,
		bcryptCost: bcryptCost,
	}
}

// GenerateKey creates a new API key. Returns the raw key, its prefix (first 8 chars),
// and the bcrypt hash. The raw key is: 32 random bytes -> base64url -> prepend "cg_".
func (s *Service) GenerateKey() (rawKey, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = KeyPrefix + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawKey[:8]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing key: %w", err)
	}
	hash = string(hashBytes)

	return rawKey, prefix, hash, nil
}

// Authenticate resolves a raw API key to an Identity. It extracts the prefix,
// looks up candidates, and bcrypt-compares each one.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*Identity, error) {
	if len(rawKey) < 8 {
		return nil, ErrInvalidKey
	}

	prefix := rawKey[:8]

	candidates, err := s.clientRepo.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding clients by prefix: %w", err)
	}

	for _, c := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(c.ApiKeyHash), []byte(rawKey)) == nil {
			return &Identity{ClientID: c.ID, ClientName: c.Name, Role: c.Role}, nil
		}
	}

	return nil, ErrInvalidKey
}

// CreateClient registers a new client and returns it with its raw key, which
// is never stored and cannot be shown again.
func (s *Service) CreateClient(ctx context.Context, name string, role Role) (*Client, string, error) {
	rawKey, prefix, hash, err := s.GenerateKey()
	if err != nil {
		return nil, "", err
	}

	c := &Client{
		Name:         name,
		Role:         role,
		ApiKeyPrefix: prefix,
		ApiKeyHash:   hash,
	}
	if err := s.clientRepo.Create(ctx, c); err != nil {
		return nil, "", fmt.Errorf("creating client: %w", err)
	}
	return c, rawKey, nil
}

// BootstrapAdmin creates the initial admin client if the clients table is empty.
// Returns the raw API key (only displayed once). If clients already exist, returns empty string.
func (s *Service) BootstrapAdmin(ctx context.Context) (string, error) {
	count, err := s.clientRepo.CountAll(ctx)
	if err != nil {
		return "", fmt.Errorf("counting clients: %w", err)
	}

	if count > 0 {
		return "", nil
	}

	_, rawKey, err := s.CreateClient(ctx, "admin", RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("creating admin client: %w", err)
	}

	slog.Info("Admin API key created", "key", rawKey)

	return rawKey, nil
}
