package cache

import (
	"context"
	"errors"
	"time"

	"task-manager/logging"
	"task-manager/models"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const breakerFailureThreshold = 3

// DashboardCache keeps serialized dashboards in Redis behind a circuit breaker.
// Every failure is reported as a miss so callers fall back to recomputing.
type DashboardCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
}

func NewDashboardCache(client *redis.Client, ttl time.Duration) *DashboardCache {
	if client == nil {
		panic("cache.NewDashboardCache: redis client is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dashboard-cache-cb",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warnf("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	return &DashboardCache{client: client, ttl: ttl, breaker: breaker}
}

func (c *DashboardCache) Get(ctx context.Context, key string) (*models.Dashboard, bool) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		data, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		c.logFailure("get", key, err)
		return nil, false
	}
	data, _ := res.([]byte)
	if data == nil {
		return nil, false
	}

	var dashboard models.Dashboard
	if err := sonic.Unmarshal(data, &dashboard); err != nil {
		logging.Logger.Warnf("Event ID: DASHBOARD_CACHE_CORRUPT, Description: Dropping unreadable cache entry %s: %v", key, err)
		c.Delete(ctx, key)
		return nil, false
	}
	logging.Logger.Debugf("Event ID: DASHBOARD_CACHE_HIT, Description: Served %s from cache", key)
	return &dashboard, true
}

func (c *DashboardCache) Set(ctx context.Context, key string, dashboard *models.Dashboard) {
	if c.ttl == 0 || dashboard == nil {
		return
	}
	data, err := sonic.Marshal(dashboard)
	if err != nil {
		logging.Logger.Errorf("Event ID: DASHBOARD_CACHE_ENCODE_FAILED, Description: Failed to encode %s: %v", key, err)
		return
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, data, c.ttl).Err()
	})
	if err != nil {
		c.logFailure("set", key, err)
	}
}

func (c *DashboardCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		c.logFailure("delete", keys[0], err)
	}
}

func (c *DashboardCache) logFailure(op, key string, err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logging.Logger.Debugf("Event ID: DASHBOARD_CACHE_SKIPPED, Description: Cache %s for %s skipped, breaker open", op, key)
		return
	}
	logging.Logger.Warnf("Event ID: DASHBOARD_CACHE_ERROR, Description: Cache %s for %s failed: %v", op, key, err)
}
