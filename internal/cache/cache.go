package cache

import (
	"context"
	"time"

	"dukkan/backend/internal/domain"
)

// DashboardCache holds computed dashboard and statistics snapshots.
// Invalidation is version based: every ledger write bumps the store's
// version, and snapshot keys embed the version they were computed against,
// so stale entries simply stop being addressed and age out via TTL.
type DashboardCache interface {
	GetDashboard(ctx context.Context, key string) (*domain.DashboardResponse, bool, error)
	SetDashboard(ctx context.Context, key string, value *domain.DashboardResponse, ttl time.Duration) error
	GetStats(ctx context.Context, key string) (*domain.StatsResponse, bool, error)
	SetStats(ctx context.Context, key string, value *domain.StatsResponse, ttl time.Duration) error
	Version(ctx context.Context, storeID string) (int64, error)
	Bump(ctx context.Context, storeID string) error
}

type NoopDashboardCache struct{}

func (NoopDashboardCache) GetDashboard(_ context.Context, _ string) (*domain.DashboardResponse, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) SetDashboard(_ context.Context, _ string, _ *domain.DashboardResponse, _ time.Duration) error {
	return nil
}

func (NoopDashboardCache) GetStats(_ context.Context, _ string) (*domain.StatsResponse, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) SetStats(_ context.Context, _ string, _ *domain.StatsResponse, _ time.Duration) error {
	return nil
}

func (NoopDashboardCache) Version(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func (NoopDashboardCache) Bump(_ context.Context, _ string) error {
	return nil
}
