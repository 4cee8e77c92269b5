package repository

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthschool/goaltrack/internal/core/domain"
)

func setupCacheRedis(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       2,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Skipping cached repository tests: redis connection failed: %v", err)
	}

	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	return rdb
}

// countingGoalRepo counts pass-through calls so tests can tell a cache hit
// from a miss.
type countingGoalRepo struct {
	*InMemoryGoalRepository
	listCalls int
}

func (c *countingGoalRepo) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Goal, error) {
	c.listCalls++
	return c.InMemoryGoalRepository.ListByHomeschool(ctx, homeschoolID)
}

func TestCachedGoalRepository_Integration(t *testing.T) {
	rdb := setupCacheRedis(t)
	defer rdb.Close()

	ctx := context.Background()

	newFixture := func(t *testing.T) (*CachedGoalRepository, *countingGoalRepo, *domain.Goal) {
		t.Helper()
		require.NoError(t, rdb.FlushDB(ctx).Err())

		inner := &countingGoalRepo{InMemoryGoalRepository: NewInMemoryGoalRepository()}
		repo := NewCachedGoalRepository(inner, rdb)

		g, err := domain.NewGoal("hs1", "act1", "Reading", []string{"s1"})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, g))
		return repo, inner, g
	}

	t.Run("Second list is served from the cache", func(t *testing.T) {
		repo, inner, g := newFixture(t)

		first, err := repo.ListByHomeschool(ctx, "hs1")
		require.NoError(t, err)
		require.Len(t, first, 1)

		second, err := repo.ListByHomeschool(ctx, "hs1")
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, g.ID, second[0].ID)
		assert.Equal(t, 1, inner.listCalls, "second read must not hit the backing store")
	})

	t.Run("Update invalidates the cached list", func(t *testing.T) {
		repo, inner, g := newFixture(t)

		_, err := repo.ListByHomeschool(ctx, "hs1")
		require.NoError(t, err)

		require.NoError(t, g.Rename("Renamed"))
		require.NoError(t, repo.Update(ctx, g))

		list, err := repo.ListByHomeschool(ctx, "hs1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Renamed", list[0].Name)
		assert.Equal(t, 2, inner.listCalls)
	})

	t.Run("Delete invalidates the cached list", func(t *testing.T) {
		repo, _, g := newFixture(t)

		_, err := repo.ListByHomeschool(ctx, "hs1")
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, g.ID))

		list, err := repo.ListByHomeschool(ctx, "hs1")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Corrupted cache entry falls through to the store", func(t *testing.T) {
		repo, _, g := newFixture(t)

		require.NoError(t, rdb.Set(ctx, "goals:hs1", "{not json", 0).Err())

		list, err := repo.ListByHomeschool(ctx, "hs1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, g.ID, list[0].ID)
	})
}
