package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetIdempotencyKey stores an idempotency key with TTL. The database row
// is the source of truth; this is a fast-path check for hot replays.
func (c *Client) SetIdempotencyKey(ctx context.Context, businessID, key, saleID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s:%s", businessID, key), saleID, ttl).Err()
}

// GetIdempotencyKey returns the sale ID recorded for the key, or "" if absent
func (c *Client) GetIdempotencyKey(ctx context.Context, businessID, key string) (string, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s:%s", businessID, key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Daily rollup fields maintained by the ledger worker.
const (
	RollupFieldSales  = "sales_total"
	RollupFieldIncome = "income_received"
	RollupFieldCount  = "sales_count"

	rollupRetention = 90 * 24 * time.Hour
	rollupDayFormat = "2006-01-02"
)

func rollupKey(businessID string, day time.Time) string {
	return fmt.Sprintf("rollup:%s:%s", businessID, day.UTC().Format(rollupDayFormat))
}

// IncrDailyRollup atomically bumps one field of a tenant's daily rollup hash
func (c *Client) IncrDailyRollup(ctx context.Context, businessID string, day time.Time, field string, delta int64) error {
	key := rollupKey(businessID, day)

	pipe := c.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, field, delta)
	pipe.Expire(ctx, key, rollupRetention)

	_, err := pipe.Exec(ctx)
	return err
}

// GetDailyRollup reads a tenant's rollup hash for one day
func (c *Client) GetDailyRollup(ctx context.Context, businessID string, day time.Time) (map[string]int64, error) {
	raw, err := c.rdb.HGetAll(ctx, rollupKey(businessID, day)).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(raw))
	for field, val := range raw {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt rollup field %s: %w", field, err)
		}
		out[field] = n
	}
	return out, nil
}
