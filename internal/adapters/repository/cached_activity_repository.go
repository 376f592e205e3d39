package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

const activityListTTL = 30 * time.Minute

var _ domain.ActivityRepository = (*CachedActivityRepository)(nil)

// CachedActivityRepository caches listings per user in a Redis hash with one
// field per sort and limit combination. Any write drops the whole hash.
type CachedActivityRepository struct {
	next   domain.ActivityRepository
	cache  *redis.Client
	logger *logrus.Logger
}

func NewCachedActivityRepository(next domain.ActivityRepository, cache *redis.Client, logger *logrus.Logger) *CachedActivityRepository {
	return &CachedActivityRepository{
		next:   next,
		cache:  cache,
		logger: logger,
	}
}

func (r *CachedActivityRepository) cacheKey(userID string) string {
	return fmt.Sprintf("activities:%s", userID)
}

func listField(opts domain.ListOptions) string {
	return fmt.Sprintf("%s:%d", opts.Sort.String(), opts.Limit)
}

func (r *CachedActivityRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Warn("cache: failed to invalidate activity listings")
	}
}

func (r *CachedActivityRepository) List(ctx context.Context, userID string, opts domain.ListOptions) ([]*domain.CarbonActivity, error) {
	key := r.cacheKey(userID)
	field := listField(opts)
	log := r.logger.WithField("user_id", userID)

	val, err := r.cache.HGet(ctx, key, field).Result()
	if err == nil {
		var activities []*domain.CarbonActivity
		if err := json.Unmarshal([]byte(val), &activities); err == nil {
			return activities, nil
		}

		log.Warn("cache: corrupted activity listing, cleaning up key")
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		log.WithError(err).Warn("cache: redis read error")
	}

	activities, err := r.next.List(ctx, userID, opts)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(activities); err == nil {
		pipe := r.cache.TxPipeline()
		pipe.HSet(ctx, key, field, data)
		pipe.Expire(ctx, key, activityListTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			log.WithError(err).Warn("cache: redis write error")
		}
	}

	return activities, nil
}

func (r *CachedActivityRepository) GetByID(ctx context.Context, id string) (*domain.CarbonActivity, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedActivityRepository) Create(ctx context.Context, activity *domain.CarbonActivity) error {
	if err := r.next.Create(ctx, activity); err != nil {
		return err
	}
	r.invalidate(ctx, activity.UserID)
	return nil
}

func (r *CachedActivityRepository) Update(ctx context.Context, activity *domain.CarbonActivity) error {
	if err := r.next.Update(ctx, activity); err != nil {
		return err
	}
	r.invalidate(ctx, activity.UserID)
	return nil
}
