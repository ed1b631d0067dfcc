// Package routestats tracks per-route write volumes and persists them to
// Redis so operators can see which tables are actually flowing.
package routestats

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "refinery:routestats:"

// Batch accumulates usage for one route between flushes.
type Batch struct {
	Route     string
	Records   int64
	Objects   int64
	LastWrite time.Time
}

// NewBatch creates an empty batch for a route.
func NewBatch(route string) *Batch {
	return &Batch{Route: route}
}

// Add records one route-file write containing n records.
func (b *Batch) Add(n int64) {
	b.Records += n
	b.Objects++
	b.LastWrite = time.Now().UTC()
}

// Merge folds another batch into this one (used when a flush fails and the
// batch is re-queued).
func (b *Batch) Merge(other *Batch) {
	b.Records += other.Records
	b.Objects += other.Objects
	if other.LastWrite.After(b.LastWrite) {
		b.LastWrite = other.LastWrite
	}
}

// Client persists route stats to Redis hashes.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis using a URL like "redis://localhost:6379/0".
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// FlushBatch applies one batch to its route's hash.
func (c *Client) FlushBatch(ctx context.Context, b *Batch) error {
	key := keyPrefix + b.Route

	pipe := c.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "records", b.Records)
	pipe.HIncrBy(ctx, key, "objects", b.Objects)
	if !b.LastWrite.IsZero() {
		pipe.HSet(ctx, key, "last_write", b.LastWrite.Format(time.RFC3339))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("flush route stats for %s: %w", b.Route, err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
