package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/coachgate/internal/auth"
	"github.com/daap14/coachgate/internal/storage"
)

var clientCols = []string{"id", "name", "role", "api_key_prefix", "api_key_hash", "created_at", "revoked_at"}

func newMockRepo(t *testing.T) (auth.ClientRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return auth.NewRepository(mock), mock
}

// --- Memory Repository Tests ---

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	repo := auth.NewMemoryRepository()
	ctx := context.Background()

	c := &auth.Client{Name: "web", Role: auth.RoleService, ApiKeyPrefix: "cg_abcde", ApiKeyHash: "h"}
	require.NoError(t, repo.Create(ctx, c))
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "web", got.Name)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, auth.ErrClientNotFound)
}

func TestMemoryRepository_RevokeTwice(t *testing.T) {
	t.Parallel()
	repo := auth.NewMemoryRepository()
	ctx := context.Background()

	c := &auth.Client{Name: "web", Role: auth.RoleService, ApiKeyPrefix: "cg_abcde"}
	require.NoError(t, repo.Create(ctx, c))

	require.NoError(t, repo.Revoke(ctx, c.ID))
	assert.ErrorIs(t, repo.Revoke(ctx, c.ID), auth.ErrClientRevoked)
	assert.ErrorIs(t, repo.Revoke(ctx, uuid.New()), auth.ErrClientNotFound)

	found, err := repo.FindByPrefix(ctx, "cg_abcde")
	require.NoError(t, err)
	assert.Empty(t, found)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].RevokedAt)
}

// --- Postgres Repository Tests ---

func TestPostgresRepository_Create(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	id := uuid.New()
	created := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO api_clients").
		WithArgs("web", "service", "cg_abcde", "hash").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, created))

	c := &auth.Client{Name: "web", Role: auth.RoleService, ApiKeyPrefix: "cg_abcde", ApiKeyHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, id, c.ID)
	assert.Equal(t, created, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectQuery("SELECT .+ FROM api_clients WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, auth.ErrClientNotFound)
}

func TestPostgresRepository_FindByPrefix(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	id := uuid.New()
	created := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM api_clients WHERE api_key_prefix").
		WithArgs("cg_abcde").
		WillReturnRows(pgxmock.NewRows(clientCols).
			AddRow(id, "admin", "admin", "cg_abcde", "hash", created, (*time.Time)(nil)))

	clients, err := repo.FindByPrefix(context.Background(), "cg_abcde")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, auth.RoleAdmin, clients[0].Role)
	assert.Nil(t, clients[0].RevokedAt)
}

func TestPostgresRepository_Revoke_AlreadyRevoked(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectExec("UPDATE api_clients").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.Revoke(context.Background(), id)
	assert.ErrorIs(t, err, auth.ErrClientRevoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Revoke_NotFound(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	id := uuid.New()
	mock.ExpectExec("UPDATE api_clients").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	assert.ErrorIs(t, repo.Revoke(context.Background(), id), auth.ErrClientNotFound)
}

func TestPostgresRepository_CountAll_Unavailable(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection refused"))

	_, err := repo.CountAll(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}
