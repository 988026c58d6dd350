// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

// moduleCacheImpl stores module content under per-path keys with a TTL and
// keeps an index set of known paths with no expiry. The two lifetimes are
// deliberately independent: an indexed path whose content key expired must be
// re-cached from the durable record store.
type moduleCacheImpl struct {
	client *Client
	logger log.Logger
}

func NewModuleCache(client *Client, logger log.Logger) persistence.ModuleCache {
	return &moduleCacheImpl{
		client: client,
		logger: logger,
	}
}

func (m *moduleCacheImpl) GetModule(ctx context.Context, path string) (*data_models.CachedModule, error) {
	rdb, err := m.client.Session(ctx)
	if err != nil {
		return nil, err
	}
	data, err := rdb.Get(ctx, m.client.moduleKey(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, m.client.storeErr("get module", err)
	}
	var module data_models.CachedModule
	if err := json.Unmarshal(data, &module); err != nil {
		return nil, err
	}
	return &module, nil
}

func (m *moduleCacheImpl) SetModule(ctx context.Context, module data_models.CachedModule) error {
	rdb, err := m.client.Session(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(module)
	if err != nil {
		return err
	}
	if err := rdb.Set(ctx, m.client.moduleKey(module.Path), data, ModuleContentTTL).Err(); err != nil {
		return m.client.storeErr("set module", err)
	}
	if err := rdb.SAdd(ctx, m.client.moduleIndexKey(), module.Path).Err(); err != nil {
		return m.client.storeErr("index module", err)
	}
	return nil
}

func (m *moduleCacheImpl) InvalidateModule(ctx context.Context, path string) error {
	rdb, err := m.client.Session(ctx)
	if err != nil {
		return err
	}
	if err := rdb.Del(ctx, m.client.moduleKey(path)).Err(); err != nil {
		return m.client.storeErr("delete module", err)
	}
	if err := rdb.SRem(ctx, m.client.moduleIndexKey(), path).Err(); err != nil {
		return m.client.storeErr("unindex module", err)
	}
	return nil
}

func (m *moduleCacheImpl) GetAllModulePaths(ctx context.Context) ([]string, error) {
	rdb, err := m.client.Session(ctx)
	if err != nil {
		return nil, err
	}
	paths, err := rdb.SMembers(ctx, m.client.moduleIndexKey()).Result()
	if err != nil {
		return nil, m.client.storeErr("list module index", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *moduleCacheImpl) ClearModuleCache(ctx context.Context) (int, error) {
	rdb, err := m.client.Session(ctx)
	if err != nil {
		return 0, err
	}
	paths, err := rdb.SMembers(ctx, m.client.moduleIndexKey()).Result()
	if err != nil {
		return 0, m.client.storeErr("list module index", err)
	}
	deleted := 0
	for _, path := range paths {
		n, err := rdb.Del(ctx, m.client.moduleKey(path)).Result()
		if err != nil {
			return deleted, m.client.storeErr("delete module", err)
		}
		deleted += int(n)
	}
	if err := rdb.Del(ctx, m.client.moduleIndexKey()).Err(); err != nil {
		return deleted, m.client.storeErr("clear module index", err)
	}
	m.logger.Info("module cache cleared", tag.Counter(deleted))
	return deleted, nil
}

// context-free variants for the loader's resolution path

func (m *moduleCacheImpl) GetModuleSync(path string) (*data_models.CachedModule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), syncOpTimeout)
	defer cancel()
	return m.GetModule(ctx, path)
}

func (m *moduleCacheImpl) GetAllModulePathsSync() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), syncOpTimeout)
	defer cancel()
	return m.GetAllModulePaths(ctx)
}
