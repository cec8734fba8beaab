package ports

import "context"

// HealthChecker probes one dependency (database, redis) for the health endpoint.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
