package health

import (
	"context"

	"github.com/Himanshux99/BackendProjectProjectManagement/internal/core/ports"
	infraDB "github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/db"
	"github.com/go-redis/redis/v8"
)

// dbHealthChecker wraps the database for health checks.
type dbHealthChecker struct{ db *infraDB.Database }

func (d *dbHealthChecker) Name() string                    { return "database" }
func (d *dbHealthChecker) Check(ctx context.Context) error { return d.db.DB.PingContext(ctx) }

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client redis.Cmdable }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// memoryStoreChecker reports the in-process store, which is always up.
type memoryStoreChecker struct{}

func (memoryStoreChecker) Name() string                { return "user_store" }
func (memoryStoreChecker) Check(context.Context) error { return nil }

// NewDBHealthChecker creates a health checker for the database.
func NewDBHealthChecker(db *infraDB.Database) ports.HealthChecker { return &dbHealthChecker{db: db} }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client redis.Cmdable) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewMemoryStoreChecker creates the checker used with the in-memory user store.
func NewMemoryStoreChecker() ports.HealthChecker { return memoryStoreChecker{} }
