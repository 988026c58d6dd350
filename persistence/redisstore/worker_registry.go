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

type workerRegistryImpl struct {
	client *Client
	logger log.Logger
}

func NewWorkerRegistry(client *Client, logger log.Logger) persistence.WorkerRegistry {
	return &workerRegistryImpl{
		client: client,
		logger: logger,
	}
}

func (w *workerRegistryImpl) Heartbeat(ctx context.Context, workerId string, ttl time.Duration) error {
	rdb, err := w.client.Session(ctx)
	if err != nil {
		return err
	}
	reg := data_models.WorkerRegistration{
		WorkerId:        workerId,
		LastHeartbeatAt: time.Now().UTC(),
	}
	data, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	if err := rdb.Set(ctx, w.client.workerKey(workerId), data, ttl).Err(); err != nil {
		return w.client.storeErr("heartbeat", err)
	}
	return nil
}

func (w *workerRegistryImpl) GetRegistration(ctx context.Context, workerId string) (*data_models.WorkerRegistration, error) {
	rdb, err := w.client.Session(ctx)
	if err != nil {
		return nil, err
	}
	data, err := rdb.Get(ctx, w.client.workerKey(workerId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, w.client.storeErr("get registration", err)
	}
	var reg data_models.WorkerRegistration
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (w *workerRegistryImpl) IsAlive(ctx context.Context, workerId string) (bool, error) {
	rdb, err := w.client.Session(ctx)
	if err != nil {
		return false, err
	}
	exists, err := rdb.Exists(ctx, w.client.workerKey(workerId)).Result()
	if err != nil {
		return false, w.client.storeErr("check registration", err)
	}
	return exists > 0, nil
}
