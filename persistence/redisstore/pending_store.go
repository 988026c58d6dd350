// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package redisstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

type pendingStoreImpl struct {
	client *Client
	logger log.Logger
}

func NewPendingStore(client *Client, logger log.Logger) persistence.PendingStore {
	return &pendingStoreImpl{
		client: client,
		logger: logger,
	}
}

func (s *pendingStoreImpl) SetPending(ctx context.Context, pending data_models.PendingExecution) error {
	rdb, err := s.client.Session(ctx)
	if err != nil {
		return err
	}
	pending.Version = data_models.PendingExecutionVersion
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	// idempotent overwrite: the broker may redeliver a job and the worker
	// will simply re-read the same payload
	if err := rdb.Set(ctx, s.client.pendingKey(pending.ExecutionId), data, PendingTTL).Err(); err != nil {
		return s.client.storeErr("set pending", err)
	}
	return nil
}

func (s *pendingStoreImpl) GetPending(ctx context.Context, executionId string) (*data_models.PendingExecution, error) {
	rdb, err := s.client.Session(ctx)
	if err != nil {
		return nil, err
	}
	data, err := rdb.Get(ctx, s.client.pendingKey(executionId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, s.client.storeErr("get pending", err)
	}
	var pending data_models.PendingExecution
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

func (s *pendingStoreImpl) DeletePending(ctx context.Context, executionId string) error {
	rdb, err := s.client.Session(ctx)
	if err != nil {
		return err
	}
	if err := rdb.Del(ctx, s.client.pendingKey(executionId)).Err(); err != nil {
		return s.client.storeErr("delete pending", err)
	}
	return nil
}

func (s *pendingStoreImpl) MarkCancelled(ctx context.Context, executionId string) (bool, error) {
	rdb, err := s.client.Session(ctx)
	if err != nil {
		return false, err
	}
	key := s.client.pendingKey(executionId)

	// read-modify-write that preserves the remaining TTL: a cancel must not
	// grant the record a fresh full window
	remaining, err := rdb.PTTL(ctx, key).Result()
	if err != nil {
		return false, s.client.storeErr("pttl pending", err)
	}
	data, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// no pending record: nothing to mark, nothing is created
		return false, nil
	}
	if err != nil {
		return false, s.client.storeErr("get pending", err)
	}
	var pending data_models.PendingExecution
	if err := json.Unmarshal(data, &pending); err != nil {
		return false, err
	}
	pending.Cancelled = true
	updated, err := json.Marshal(pending)
	if err != nil {
		return false, err
	}
	if remaining <= 0 {
		// the record had already logically expired (or carried no expiry);
		// only then reset to the full window
		remaining = PendingTTL
	}
	if err := rdb.Set(ctx, key, updated, remaining).Err(); err != nil {
		return false, s.client.storeErr("set pending", err)
	}
	if err := rdb.Set(ctx, s.client.cancelKey(executionId), "1", CancelTTL).Err(); err != nil {
		return false, s.client.storeErr("set cancel flag", err)
	}
	return true, nil
}

func (s *pendingStoreImpl) IsCancelled(ctx context.Context, executionId string) (bool, error) {
	rdb, err := s.client.Session(ctx)
	if err != nil {
		return false, err
	}
	exists, err := rdb.Exists(ctx, s.client.cancelKey(executionId)).Result()
	if err != nil {
		return false, s.client.storeErr("check cancel flag", err)
	}
	return exists > 0, nil
}
