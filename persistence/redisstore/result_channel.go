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
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

type resultChannelImpl struct {
	client *Client
	logger log.Logger
}

func NewResultChannel(client *Client, logger log.Logger) persistence.ResultChannel {
	return &resultChannelImpl{
		client: client,
		logger: logger,
	}
}

func (r *resultChannelImpl) PushResult(ctx context.Context, executionId string, result data_models.ExecutionResult) error {
	rdb, err := r.client.Session(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	key := r.client.resultKey(executionId)
	if err := rdb.RPush(ctx, key, data).Err(); err != nil {
		return r.client.storeErr("push result", err)
	}
	// short TTL auto-cleans results nobody popped
	if err := rdb.Expire(ctx, key, ResultTTL).Err(); err != nil {
		return r.client.storeErr("expire result", err)
	}
	return nil
}

func (r *resultChannelImpl) WaitForResult(
	ctx context.Context, executionId string, timeout time.Duration,
) (*data_models.ExecutionResult, error) {
	rdb, err := r.client.Session(ctx)
	if err != nil {
		return nil, err
	}
	vals, err := rdb.BRPop(ctx, timeout, r.client.resultKey(executionId)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrTimeout
	}
	if err != nil {
		return nil, r.client.storeErr("wait for result", err)
	}
	// BRPOP returns [key, value]
	var result data_models.ExecutionResult
	if err := json.Unmarshal([]byte(vals[1]), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
