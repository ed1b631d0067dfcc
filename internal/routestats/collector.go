package routestats

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Collector accumulates per-route stats and flushes to Redis periodically.
// Safe for concurrent use from multiple goroutines.
type Collector struct {
	client        *Client
	flushInterval time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	batches map[string]*Batch

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCollector creates a stats collector that flushes to Redis periodically.
func NewCollector(client *Client, flushInterval time.Duration, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Collector{
		client:        client,
		flushInterval: flushInterval,
		logger:        logger,
		batches:       make(map[string]*Batch),
		ctx:           ctx,
		cancel:        cancel,
	}

	c.wg.Add(1)
	go c.flushLoop()

	return c
}

// Record accumulates one route-file write for later batch flushing.
func (c *Collector) Record(route string, records int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch, ok := c.batches[route]
	if !ok {
		batch = NewBatch(route)
		c.batches[route] = batch
	}

	batch.Add(int64(records))
}

// flushLoop runs in the background and flushes accumulated stats periodically.
func (c *Collector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			// Final flush on shutdown
			c.flush()
			return
		case <-ticker.C:
			c.flush()
		}
	}
}

// flush writes all accumulated batches to Redis.
func (c *Collector) flush() {
	c.mu.Lock()
	// Swap out the batches map so we can release the lock quickly
	batches := c.batches
	c.batches = make(map[string]*Batch)
	c.mu.Unlock()

	if len(batches) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	flushed := 0
	totalRecords := int64(0)

	for _, batch := range batches {
		if err := c.client.FlushBatch(ctx, batch); err != nil {
			c.logger.Error("failed to flush route stats batch",
				"route", batch.Route,
				"records", batch.Records,
				"error", err,
			)
			// Re-add failed batch for retry (merge back)
			c.mu.Lock()
			if existing, ok := c.batches[batch.Route]; ok {
				existing.Merge(batch)
			} else {
				c.batches[batch.Route] = batch
			}
			c.mu.Unlock()
		} else {
			flushed++
			totalRecords += batch.Records
		}
	}

	if flushed > 0 {
		c.logger.Debug("flushed route stats",
			"routes", flushed,
			"total_records", totalRecords,
		)
	}
}

// FlushNow forces an immediate flush of all accumulated stats.
func (c *Collector) FlushNow() {
	c.flush()
}

// Stop stops the collector and flushes any remaining stats.
func (c *Collector) Stop() {
	c.cancel()
	c.wg.Wait()
}

// Stats returns the current accumulated record counts (not yet flushed).
func (c *Collector) Stats() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := make(map[string]int64, len(c.batches))
	for route, batch := range c.batches {
		stats[route] = batch.Records
	}
	return stats
}
