package casestore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"renovation-scope/internal/common/logger"
	"renovation-scope/internal/common/metrics"
	"renovation-scope/internal/models"
)

const cacheKeyPrefix = "scope:case:"

// CachedStore is a cache-aside decorator over another CaseStore. Cache
// failures are logged and never fail a lookup.
type CachedStore struct {
	next   CaseStore
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedStore wraps next. Without a Redis client, next is returned as is.
func NewCachedStore(next CaseStore, rdb *redis.Client, ttl time.Duration, log logger.Logger) CaseStore {
	if rdb == nil {
		return next
	}
	return &CachedStore{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: logger.ForComponent(log, "case_cache"),
	}
}

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

func (s *CachedStore) GetCase(ctx context.Context, id string) (models.ServiceCase, error) {
	key := cacheKey(id)

	val, err := s.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var sc models.ServiceCase
		if jsonErr := json.Unmarshal([]byte(val), &sc); jsonErr == nil {
			metrics.CaseCacheLookups.WithLabelValues("hit").Inc()
			return sc, nil
		}
		metrics.CaseCacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.CaseCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CaseCacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("case cache read failed", map[string]interface{}{
			"caseId": id,
			"error":  err.Error(),
		})
	}

	sc, err := s.next.GetCase(ctx, id)
	if err != nil {
		return models.ServiceCase{}, err
	}

	data, _ := json.Marshal(sc)
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("case cache write failed", map[string]interface{}{
			"caseId": id,
			"error":  err.Error(),
		})
	}
	return sc, nil
}
