// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

// lockServiceImpl is advisory locking over the shared store. Acquisition is a
// single atomic set-if-absent-with-expiry, so there is no window where a lock
// key exists without a TTL.
type lockServiceImpl struct {
	client *Client
	logger log.Logger
}

func NewLockService(client *Client, logger log.Logger) persistence.LockService {
	return &lockServiceImpl{
		client: client,
		logger: logger,
	}
}

func (l *lockServiceImpl) Acquire(
	ctx context.Context, name, ownerId, ownerLabel, operation string, ttl time.Duration,
) (bool, *data_models.LockInfo, error) {
	rdb, err := l.client.Session(ctx)
	if err != nil {
		return false, nil, err
	}
	now := time.Now().UTC()
	info := data_models.LockInfo{
		OwnerId:    ownerId,
		OwnerLabel: ownerLabel,
		Operation:  operation,
		LockedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}
	data, err := json.Marshal(info)
	if err != nil {
		return false, nil, err
	}
	ok, err := rdb.SetNX(ctx, l.client.lockKey(name), data, ttl).Result()
	if err != nil {
		return false, nil, l.client.storeErr("acquire lock", err)
	}
	if ok {
		return true, nil, nil
	}
	// contention is not an error: report the current holder
	existing, err := l.GetLockInfo(ctx, name)
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}

func (l *lockServiceImpl) Release(ctx context.Context, name, ownerId string) (bool, error) {
	rdb, err := l.client.Session(ctx)
	if err != nil {
		return false, err
	}
	existing, err := l.GetLockInfo(ctx, name)
	if err != nil {
		return false, err
	}
	if existing == nil || existing.OwnerId != ownerId {
		l.logger.Debug("rejecting lock release by non-owner", tag.LockName(name))
		return false, nil
	}
	if err := rdb.Del(ctx, l.client.lockKey(name)).Err(); err != nil {
		return false, l.client.storeErr("release lock", err)
	}
	return true, nil
}

func (l *lockServiceImpl) Extend(ctx context.Context, name, ownerId string, extra time.Duration) (bool, error) {
	rdb, err := l.client.Session(ctx)
	if err != nil {
		return false, err
	}
	key := l.client.lockKey(name)
	existing, err := l.GetLockInfo(ctx, name)
	if err != nil {
		return false, err
	}
	if existing == nil || existing.OwnerId != ownerId {
		// a non-owner extend mutates nothing
		return false, nil
	}
	remaining, err := rdb.PTTL(ctx, key).Result()
	if err != nil {
		return false, l.client.storeErr("pttl lock", err)
	}
	if remaining < 0 {
		remaining = 0
	}
	newTTL := remaining + extra
	existing.ExpiresAt = time.Now().UTC().Add(newTTL)
	data, err := json.Marshal(existing)
	if err != nil {
		return false, err
	}
	if err := rdb.Set(ctx, key, data, newTTL).Err(); err != nil {
		return false, l.client.storeErr("extend lock", err)
	}
	return true, nil
}

func (l *lockServiceImpl) GetLockInfo(ctx context.Context, name string) (*data_models.LockInfo, error) {
	rdb, err := l.client.Session(ctx)
	if err != nil {
		return nil, err
	}
	data, err := rdb.Get(ctx, l.client.lockKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, l.client.storeErr("get lock info", err)
	}
	var info data_models.LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (l *lockServiceImpl) IsLocked(ctx context.Context, name string) (bool, error) {
	info, err := l.GetLockInfo(ctx, name)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

func (l *lockServiceImpl) ForceRelease(ctx context.Context, name string) error {
	rdb, err := l.client.Session(ctx)
	if err != nil {
		return err
	}
	if err := rdb.Del(ctx, l.client.lockKey(name)).Err(); err != nil {
		return l.client.storeErr("force release lock", err)
	}
	l.logger.Warn("lock force-released", tag.LockName(name))
	return nil
}
