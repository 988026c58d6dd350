// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

func TestModuleSetGetRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewModuleCache(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	module := data_models.CachedModule{
		Path:        "acme/util.go",
		Content:     "package util\n",
		ContentHash: "abc123",
	}
	require.NoError(t, cache.SetModule(ctx, module))

	got, err := cache.GetModule(ctx, "acme/util.go")
	require.NoError(t, err)
	assert.Equal(t, module, *got)

	gotSync, err := cache.GetModuleSync("acme/util.go")
	require.NoError(t, err)
	assert.Equal(t, module, *gotSync)

	paths, err := cache.GetAllModulePaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/util.go"}, paths)
}

func TestModuleInvalidateRemovesContentAndIndex(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewModuleCache(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	require.NoError(t, cache.SetModule(ctx, data_models.CachedModule{Path: "acme/util.go", Content: "x"}))
	require.NoError(t, cache.InvalidateModule(ctx, "acme/util.go"))

	_, err := cache.GetModule(ctx, "acme/util.go")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	paths, err := cache.GetAllModulePaths(ctx)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestModuleIndexOutlivesContentKey(t *testing.T) {
	client, server := newTestClient(t)
	cache := NewModuleCache(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	require.NoError(t, cache.SetModule(ctx, data_models.CachedModule{Path: "acme/util.go", Content: "x"}))

	// content key expires; the index set has no TTL and still claims the path
	server.FastForward(ModuleContentTTL + time.Second)

	paths, err := cache.GetAllModulePaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/util.go"}, paths)

	_, err = cache.GetModule(ctx, "acme/util.go")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestClearModuleCache(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewModuleCache(client, log.NewDevelopmentLogger())
	ctx := context.Background()

	require.NoError(t, cache.SetModule(ctx, data_models.CachedModule{Path: "acme/a.go", Content: "a"}))
	require.NoError(t, cache.SetModule(ctx, data_models.CachedModule{Path: "acme/b.go", Content: "b"}))

	deleted, err := cache.ClearModuleCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	paths, err := cache.GetAllModulePaths(ctx)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
