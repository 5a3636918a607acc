package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"dukkan/backend/internal/domain"
)

type RedisDashboardCache struct {
	client *redis.Client
}

func NewRedisDashboardCache(addr string, password string, db int) *RedisDashboardCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisDashboardCache{client: client}
}

func (c *RedisDashboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisDashboardCache) Close() error {
	return c.client.Close()
}

func (c *RedisDashboardCache) GetDashboard(ctx context.Context, key string) (*domain.DashboardResponse, bool, error) {
	var resp domain.DashboardResponse
	found, err := c.get(ctx, key, &resp)
	if !found || err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisDashboardCache) SetDashboard(ctx context.Context, key string, value *domain.DashboardResponse, ttl time.Duration) error {
	return c.set(ctx, key, value, ttl)
}

func (c *RedisDashboardCache) GetStats(ctx context.Context, key string) (*domain.StatsResponse, bool, error) {
	var resp domain.StatsResponse
	found, err := c.get(ctx, key, &resp)
	if !found || err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisDashboardCache) SetStats(ctx context.Context, key string, value *domain.StatsResponse, ttl time.Duration) error {
	return c.set(ctx, key, value, ttl)
}

func (c *RedisDashboardCache) Version(ctx context.Context, storeID string) (int64, error) {
	val, err := c.client.Get(ctx, versionKey(storeID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func (c *RedisDashboardCache) Bump(ctx context.Context, storeID string) error {
	return c.client.Incr(ctx, versionKey(storeID)).Err()
}

func (c *RedisDashboardCache) get(ctx context.Context, key string, out any) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisDashboardCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func versionKey(storeID string) string {
	return fmt.Sprintf("ledger:version:%s", storeID)
}
