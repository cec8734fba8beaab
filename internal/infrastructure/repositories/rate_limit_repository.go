package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	"github.com/go-redis/redis/v8"
)

// RateLimitRedisRepository implements rate limiting counter storage with Redis.
type RateLimitRedisRepository struct {
	r redis.Cmdable
}

func NewRateLimitRedisRepository(r redis.Cmdable) *RateLimitRedisRepository {
	return &RateLimitRedisRepository{r: r}
}

var _ ports.RateLimitRepository = (*RateLimitRedisRepository)(nil)

// IncrementWindow increments a per-key counter for a fixed window.
func (repo *RateLimitRedisRepository) IncrementWindow(ctx context.Context, key string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Truncate(window)
	redisKey := fmt.Sprintf("%s:%s:%d", keyPrefix, key, windowStart.Unix())
	pipe := repo.r.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, windowStart, err
	}
	return int(incr.Val()), windowStart, nil
}

// RateLimitMemoryRepository is the single-process counter used when Redis is
// disabled. Expired windows are swept at most once per TTL, so a request
// costs O(1) amortized however many clients are tracked.
type RateLimitMemoryRepository struct {
	mu        sync.Mutex
	counters  map[string]memoryWindow
	nextSweep time.Time
	now       func() time.Time
}

type memoryWindow struct {
	count     int
	expiresAt time.Time
}

func NewRateLimitMemoryRepository() *RateLimitMemoryRepository {
	return &RateLimitMemoryRepository{counters: make(map[string]memoryWindow), now: time.Now}
}

var _ ports.RateLimitRepository = (*RateLimitMemoryRepository)(nil)

func (repo *RateLimitMemoryRepository) IncrementWindow(ctx context.Context, key string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	now := repo.now()
	windowStart := now.Truncate(window)
	if err := ctx.Err(); err != nil {
		return 0, windowStart, err
	}
	counterKey := fmt.Sprintf("%s:%s:%d", keyPrefix, key, windowStart.Unix())

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if !now.Before(repo.nextSweep) {
		for k, w := range repo.counters {
			if !now.Before(w.expiresAt) {
				delete(repo.counters, k)
			}
		}
		repo.nextSweep = now.Add(ttl)
	}
	w := repo.counters[counterKey]
	if !now.Before(w.expiresAt) {
		w = memoryWindow{}
	}
	w.count++
	w.expiresAt = now.Add(ttl)
	repo.counters[counterKey] = w
	return w.count, windowStart, nil
}
