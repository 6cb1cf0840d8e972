package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/daap14/coachgate/internal/storage"
)

// PostgresRepository implements ClientRepository on the api_clients table.
type PostgresRepository struct {
	db storage.DBTX
}

// NewRepository creates a new ClientRepository backed by the given connection pool.
func NewRepository(db storage.DBTX) ClientRepository {
	return &PostgresRepository{db: db}
}

const clientColumns = `id, name, role, api_key_prefix, api_key_hash, created_at, revoked_at`

// Create inserts a new client record.
func (r *PostgresRepository) Create(ctx context.Context, c *Client) error {
	query := `
		INSERT INTO api_clients (name, role, api_key_prefix, api_key_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		c.Name,
		string(c.Role),
		c.ApiKeyPrefix,
		c.ApiKeyHash,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting client: %w", storage.Unavailable("create client", err))
	}

	return nil
}

// GetByID retrieves a single client by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM api_clients WHERE id = $1`

	c, err := scanClient(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("querying client: %w", storage.Unavailable("get client", err))
	}

	return c, nil
}

// FindByPrefix returns active (non-revoked) clients matching the given API key prefix.
func (r *PostgresRepository) FindByPrefix(ctx context.Context, prefix string) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM api_clients WHERE api_key_prefix = $1 AND revoked_at IS NULL`

	rows, err := r.db.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding clients by prefix: %w", storage.Unavailable("find client", err))
	}
	return collectClients(rows)
}

// List retrieves all clients ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM api_clients ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", storage.Unavailable("list clients", err))
	}
	return collectClients(rows)
}

// Revoke sets revoked_at on a client. Returns ErrClientNotFound if the client
// does not exist, and ErrClientRevoked if already revoked.
func (r *PostgresRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE api_clients
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoking client: %w", storage.Unavailable("revoke client", err))
	}

	if result.RowsAffected() == 0 {
		// Distinguish not-found from already-revoked.
		var exists bool
		err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM api_clients WHERE id = $1)", id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking client existence: %w", storage.Unavailable("revoke client", err))
		}
		if !exists {
			return ErrClientNotFound
		}
		return ErrClientRevoked
	}

	return nil
}

// CountAll returns the total number of clients in the table (including revoked).
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM api_clients").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting clients: %w", storage.Unavailable("count clients", err))
	}
	return count, nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var (
		c    Client
		role string
	)
	err := row.Scan(&c.ID, &c.Name, &role, &c.ApiKeyPrefix, &c.ApiKeyHash, &c.CreatedAt, &c.RevokedAt)
	if err != nil {
		return nil, err
	}
	c.Role = Role(role)
	return &c, nil
}

func collectClients(rows pgx.Rows) ([]Client, error) {
	defer rows.Close()

	clients := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client row: %w", err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating client rows: %w", err)
	}
	return clients, nil
}
