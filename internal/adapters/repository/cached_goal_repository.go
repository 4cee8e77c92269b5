package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hearthschool/goaltrack/internal/core/domain"
	"github.com/hearthschool/goaltrack/internal/logger"
)

var _ domain.GoalRepository = (*CachedGoalRepository)(nil)

// CachedGoalRepository caches the goal list per homeschool. Progress is never
// cached: snapshots depend on the caller's clock and timezone.
type CachedGoalRepository struct {
	next  domain.GoalRepository
	cache *redis.Client
}

func NewCachedGoalRepository(next domain.GoalRepository, cache *redis.Client) *CachedGoalRepository {
	return &CachedGoalRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedGoalRepository) cacheKey(homeschoolID string) string {
	return fmt.Sprintf("goals:%s", homeschoolID)
}

func (r *CachedGoalRepository) invalidate(ctx context.Context, homeschoolID string) {
	if err := r.cache.Del(ctx, r.cacheKey(homeschoolID)).Err(); err != nil {
		logger.Log.WithError(err).WithField("homeschool_id", homeschoolID).
			Warn("cache invalidation failed")
	}
}

func (r *CachedGoalRepository) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Goal, error) {
	key := r.cacheKey(homeschoolID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var goals []*domain.Goal
		if err := json.Unmarshal([]byte(val), &goals); err == nil {
			return goals, nil
		}

		logger.Log.WithField("homeschool_id", homeschoolID).
			Warn("corrupted cache entry, cleaning up key")
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		logger.Log.WithError(err).Warn("cache read error")
	}

	goals, err := r.next.ListByHomeschool(ctx, homeschoolID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(goals); err == nil {
		if setErr := r.cache.Set(ctx, key, data, 30*time.Minute).Err(); setErr != nil {
			logger.Log.WithError(setErr).Warn("cache write error")
		}
	}

	return goals, nil
}

func (r *CachedGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedGoalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	if err := r.next.Create(ctx, goal); err != nil {
		return err
	}
	r.invalidate(ctx, goal.HomeschoolID)
	return nil
}

func (r *CachedGoalRepository) Update(ctx context.Context, goal *domain.Goal) error {
	if err := r.next.Update(ctx, goal); err != nil {
		return err
	}
	r.invalidate(ctx, goal.HomeschoolID)
	return nil
}

func (r *CachedGoalRepository) Delete(ctx context.Context, id string) error {
	goal, err := r.next.GetByID(ctx, id)
	if err == nil && goal != nil {
		defer r.invalidate(ctx, goal.HomeschoolID)
	}

	return r.next.Delete(ctx, id)
}

func (r *CachedGoalRepository) UpdateLastRecorded(ctx context.Context, id string, at time.Time) error {
	goal, err := r.next.GetByID(ctx, id)
	if err == nil && goal != nil {
		defer r.invalidate(ctx, goal.HomeschoolID)
	}

	return r.next.UpdateLastRecorded(ctx, id, at)
}
