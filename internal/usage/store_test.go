package usage_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/daap14/coachgate/internal/storage"
	"github.com/daap14/coachgate/internal/usage"
)

// localStores builds every Store that runs without external services.
func localStores(t *testing.T) map[string]usage.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]usage.Store{
		"memory": usage.NewMemoryStore(),
		"redis":  usage.NewRedisStore(rdb),
		"sqlite": usage.NewSQLiteStore(db),
	}
}

// --- Shared behavior ---

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()

	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Load(context.Background(), usage.Key{UserID: uuid.New(), ToolID: "chat-coach"})
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_IncrementWithinPeriod(t *testing.T) {
	t.Parallel()

	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := usage.Key{UserID: uuid.New(), ToolID: "chat-coach"}
			start := mustTime(t, "2026-03-16T00:00:00Z")
			now := mustTime(t, "2026-03-18T10:00:00Z")

			for i := int64(1); i <= 4; i++ {
				c, err := s.Increment(ctx, key, start, now)
				require.NoError(t, err)
				assert.Equal(t, i, c.Count)
				assert.True(t, start.Equal(c.PeriodStart))
			}

			c, ok, err := s.Load(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, int64(4), c.Count)
			assert.True(t, start.Equal(c.PeriodStart))
		})
	}
}

func TestStore_IncrementResetsOnNewPeriod(t *testing.T) {
	t.Parallel()

	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := usage.Key{UserID: uuid.New(), ToolID: "chat-coach"}
			week1 := mustTime(t, "2026-03-16T00:00:00Z")
			week2 := mustTime(t, "2026-03-23T00:00:00Z")

			for i := 0; i < 25; i++ {
				_, err := s.Increment(ctx, key, week1, week1)
				require.NoError(t, err)
			}

			c, err := s.Increment(ctx, key, week2, week2)
			require.NoError(t, err)
			assert.Equal(t, int64(1), c.Count)
			assert.True(t, week2.Equal(c.PeriodStart))

			// A stored period after the expected one also resets.
			c, err = s.Increment(ctx, key, week1, week1)
			require.NoError(t, err)
			assert.Equal(t, int64(1), c.Count)
			assert.True(t, week1.Equal(c.PeriodStart))
		})
	}
}

func TestStore_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			start := mustTime(t, "2026-03-01T00:00:00Z")
			userID := uuid.New()

			_, err := s.Increment(ctx, usage.Key{UserID: userID, ToolID: "a"}, start, start)
			require.NoError(t, err)
			_, err = s.Increment(ctx, usage.Key{UserID: userID, ToolID: "a"}, start, start)
			require.NoError(t, err)
			c, err := s.Increment(ctx, usage.Key{UserID: userID, ToolID: "b"}, start, start)
			require.NoError(t, err)
			assert.Equal(t, int64(1), c.Count)
		})
	}
}

// --- Concurrency ---

func TestStore_ConcurrentIncrementsAreNotLost(t *testing.T) {
	t.Parallel()

	const workers, perWorker = 8, 25

	for name, s := range localStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := usage.Key{UserID: uuid.New(), ToolID: "chat-coach"}
			start := mustTime(t, "2026-03-16T00:00:00Z")

			var wg sync.WaitGroup
			seen := make(chan int64, workers*perWorker)
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						c, err := s.Increment(ctx, key, start, start)
						if err != nil {
							t.Errorf("increment: %v", err)
							return
						}
						seen <- c.Count
					}
				}()
			}
			wg.Wait()
			close(seen)

			// Every post-increment value is handed out exactly once.
			unique := make(map[int64]bool)
			for v := range seen {
				assert.False(t, unique[v], "count %d returned twice", v)
				unique[v] = true
			}
			assert.Len(t, unique, workers*perWorker)

			c, ok, err := s.Load(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, int64(workers*perWorker), c.Count)
		})
	}
}

func TestMemoryStore_CountEqualsCalls(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		s := usage.NewMemoryStore()
		ctx := context.Background()
		start := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

		users := rapid.IntRange(1, 4).Draw(t, "users")
		ids := make([]uuid.UUID, users)
		for i := range ids {
			ids[i] = uuid.New()
		}
		calls := rapid.SliceOfN(rapid.IntRange(0, users-1), 0, 200).Draw(t, "calls")

		want := make(map[uuid.UUID]int64)
		var wg sync.WaitGroup
		for _, u := range calls {
			want[ids[u]]++
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				_, _ = s.Increment(ctx, usage.Key{UserID: id, ToolID: "chat-coach"}, start, start)
			}(ids[u])
		}
		wg.Wait()

		for _, id := range ids {
			c, ok, _ := s.Load(ctx, usage.Key{UserID: id, ToolID: "chat-coach"})
			if want[id] == 0 {
				if ok {
					t.Fatalf("user %s has a counter without increments", id)
				}
				continue
			}
			if c.Count != want[id] {
				t.Fatalf("user %s: count %d, want %d", id, c.Count, want[id])
			}
		}
	})
}

// --- PostgresStore ---

func TestPostgresStore_Increment(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	key := usage.Key{UserID: uuid.New(), ToolID: "chat-coach"}
	start := mustTime(t, "2026-03-16T00:00:00Z")
	now := mustTime(t, "2026-03-18T10:00:00Z")

	mock.ExpectQuery(`INSERT INTO usage_counters .* ON CONFLICT \(user_id, tool_id\) DO UPDATE`).
		WithArgs(key.UserID, "chat-coach", start, now).
		WillReturnRows(pgxmock.NewRows([]string{"count", "period_start"}).AddRow(int64(7), start))

	c, err := usage.NewPostgresStore(mock).Increment(context.Background(), key, start, now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.Count)
	assert.True(t, start.Equal(c.PeriodStart))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IncrementUnavailable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO usage_counters`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	_, err = usage.NewPostgresStore(mock).Increment(context.Background(), usage.Key{UserID: uuid.New(), ToolID: "x"}, time.Now(), time.Now())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestPostgresStore_Load(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	key := usage.Key{UserID: uuid.New(), ToolID: "chat-coach"}
	start := mustTime(t, "2026-03-16T00:00:00Z")

	mock.ExpectQuery(`SELECT count, period_start FROM usage_counters`).
		WithArgs(key.UserID, "chat-coach").
		WillReturnRows(pgxmock.NewRows([]string{"count", "period_start"}).AddRow(int64(3), start))

	c, ok, err := usage.NewPostgresStore(mock).Load(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(3), c.Count)
}

func TestPostgresStore_LoadMissing(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT count, period_start FROM usage_counters`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := usage.NewPostgresStore(mock).Load(context.Background(), usage.Key{UserID: uuid.New(), ToolID: "x"})
	require.NoError(t, err)
	assert.False(t, ok)
}

// --- SQLiteStore failure paths ---

func TestSQLiteStore_Unavailable(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO usage_counters`).WillReturnError(sql.ErrConnDone)
	mock.ExpectQuery(`SELECT count, period_start FROM usage_counters`).WillReturnError(sql.ErrConnDone)

	s := usage.NewSQLiteStore(db)
	key := usage.Key{UserID: uuid.New(), ToolID: "x"}

	_, err = s.Increment(context.Background(), key, time.Now(), time.Now())
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	_, _, err = s.Load(context.Background(), key)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- RedisStore ---

func TestRedisStore_HashLayout(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	key := usage.Key{UserID: uuid.New(), ToolID: "chat-coach"}
	start := mustTime(t, "2026-03-16T00:00:00Z")

	_, err := usage.NewRedisStore(rdb).Increment(context.Background(), key, start, start)
	require.NoError(t, err)

	hash := "coachgate:usage:" + key.UserID.String() + ":chat-coach"
	assert.Equal(t, "1", mr.HGet(hash, "count"))
	assert.Equal(t, "1773619200000", mr.HGet(hash, "period_start"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	s := usage.NewRedisStore(rdb)
	key := usage.Key{UserID: uuid.New(), ToolID: "x"}

	_, err := s.Increment(context.Background(), key, time.Now(), time.Now())
	assert.ErrorIs(t, err, storage.ErrUnavailable)

	_, _, err = s.Load(context.Background(), key)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestRedisStore_CorruptHashReadsAsReset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields []string
	}{
		{name: "garbage period start", fields: []string{"count", "3", "period_start", "garbage"}},
		{name: "garbage count", fields: []string{"count", "many", "period_start", "1773619200000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			defer rdb.Close()

			userID := uuid.New()
			mr.HSet("coachgate:usage:"+userID.String()+":chat-coach", tt.fields...)

			s := usage.NewRedisStore(rdb)
			_, ok, err := s.Load(context.Background(), usage.Key{UserID: userID, ToolID: "chat-coach"})
			require.NoError(t, err)
			assert.False(t, ok)

			m := usage.NewMeter(s, testCatalog(t))
			now := mustTime(t, "2026-03-18T10:00:00Z")

			c, err := m.Peek(context.Background(), userID, "chat-coach", now)
			require.NoError(t, err)
			assert.Equal(t, int64(0), c.Count)

			c, err = m.Increment(context.Background(), userID, "chat-coach", now)
			require.NoError(t, err)
			assert.Equal(t, int64(1), c.Count)
		})
	}
}
