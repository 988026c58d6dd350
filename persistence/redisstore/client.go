// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package redisstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/persistence"
)

const (
	// PendingTTL reclaims orphaned pending records, e.g. when a worker
	// crashed after pickup and never deleted its record
	PendingTTL = 3600 * time.Second
	// ResultTTL reclaims results that no waiter ever popped
	ResultTTL = 60 * time.Second
	// CancelTTL matches PendingTTL so a flag outlives its pending record
	CancelTTL = 3600 * time.Second
	// ModuleContentTTL applies to module content keys only; the index set
	// has no expiry and is maintained independently
	ModuleContentTTL = 86400 * time.Second

	// syncOpTimeout bounds the context-free cache variants used by the
	// loader's resolution path
	syncOpTimeout = 5 * time.Second
)

// Client is the thin shared KV wrapper everything in this package builds on.
// A long-lived process keeps one connection open across many jobs; Session
// probes it before each use and transparently replaces it on failure, so
// callers only ever observe a latency bump on the reconnect path.
type Client struct {
	cfg    config.RedisConfig
	logger log.Logger

	mu  sync.Mutex
	rdb *redis.Client
}

func NewClient(cfg config.RedisConfig, logger log.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
		rdb:    newRedisClient(cfg),
	}
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
}

// Session returns a live connection, reconnecting if the liveness probe fails.
func (c *Client) Session(ctx context.Context) (*redis.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.logger.Warn("shared store failed liveness probe, replacing connection", tag.Error(err))
		_ = c.rdb.Close()
		c.rdb = newRedisClient(c.cfg)
		if err := c.rdb.Ping(ctx).Err(); err != nil {
			return nil, c.storeErr("ping", err)
		}
	}
	return c.rdb, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rdb.Close()
}

// storeErr logs a backend failure and wraps it as ErrStoreUnavailable.
// Never swallow these: the shared store is the coordination backbone.
func (c *Client) storeErr(op string, err error) error {
	c.logger.Error("shared store operation failed", tag.Operation(op), tag.Error(err))
	return fmt.Errorf("%w: %s: %v", persistence.ErrStoreUnavailable, op, err)
}

// key formats

func (c *Client) pendingKey(executionId string) string {
	return fmt.Sprintf("%s:exec:%s:pending", c.cfg.KeyPrefix, executionId)
}

func (c *Client) resultKey(executionId string) string {
	return fmt.Sprintf("%s:result:%s", c.cfg.KeyPrefix, executionId)
}

func (c *Client) cancelKey(executionId string) string {
	return fmt.Sprintf("%s:exec:%s:cancel", c.cfg.KeyPrefix, executionId)
}

func (c *Client) lockKey(name string) string {
	return fmt.Sprintf("%s:lock:%s", c.cfg.KeyPrefix, name)
}

func (c *Client) moduleKey(path string) string {
	return fmt.Sprintf("%s:module:%s", c.cfg.KeyPrefix, path)
}

func (c *Client) moduleIndexKey() string {
	return fmt.Sprintf("%s:module:index", c.cfg.KeyPrefix)
}

func (c *Client) workerKey(workerId string) string {
	return fmt.Sprintf("%s:worker:%s:heartbeat", c.cfg.KeyPrefix, workerId)
}
