// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/loader"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
	"github.com/flowcoreio/flowcore/persistence/redisstore"
)

const greetModuleSource = `package main

func Run(params map[string]any, ctx map[string]any) (any, error) {
	name, _ := params["name"].(string)
	return "hello " + name, nil
}
`

type fakeRecordStore struct{}

func (fakeRecordStore) GetRecord(context.Context, string, string) (*data_models.ModuleRecord, error) {
	return nil, persistence.ErrNotFound
}

func (fakeRecordStore) ListRecordsByOrg(context.Context, string) ([]data_models.ModuleRecord, error) {
	return nil, nil
}

func (fakeRecordStore) UpsertRecord(context.Context, data_models.ModuleRecord) error { return nil }

func (fakeRecordStore) GetWorkflowBinding(context.Context, string) (*data_models.WorkflowBinding, error) {
	return nil, persistence.ErrNotFound
}

func (fakeRecordStore) Close() error { return nil }

type recordingNotifier struct {
	mu       sync.Mutex
	failures []string
}

func (n *recordingNotifier) NotifyFailure(executionId, _ string, _ data_models.ExecutionResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, executionId)
}

func (n *recordingNotifier) failedIds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.failures...)
}

type runnerFixture struct {
	svc      *Service
	pending  persistence.PendingStore
	results  persistence.ResultChannel
	registry persistence.WorkerRegistry
	cache    persistence.ModuleCache
	notifier *recordingNotifier
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	server := miniredis.RunT(t)
	logger := log.NewDevelopmentLogger()
	client := redisstore.NewClient(config.RedisConfig{
		Address:     server.Addr(),
		KeyPrefix:   "flowcoretest",
		DialTimeout: time.Second,
	}, logger)
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.Config{
		WorkerService: config.WorkerServiceConfig{
			HeartbeatInterval: time.Second,
		},
	}
	pending := redisstore.NewPendingStore(client, logger)
	results := redisstore.NewResultChannel(client, logger)
	registry := redisstore.NewWorkerRegistry(client, logger)
	cache := redisstore.NewModuleCache(client, logger)
	notifier := &recordingNotifier{}
	loaderFS := loader.NewCacheFS(cache, nil, logger)
	locks := redisstore.NewLockService(client, logger)
	svc := NewService(cfg, "worker-test", pending, results, registry, fakeRecordStore{},
		cache, locks, nil, loaderFS, notifier, logger)
	return &runnerFixture{
		svc:      svc,
		pending:  pending,
		results:  results,
		registry: registry,
		cache:    cache,
		notifier: notifier,
	}
}

func (f *runnerFixture) cacheGreetModule(t *testing.T) {
	t.Helper()
	require.NoError(t, f.cache.SetModule(context.Background(), data_models.CachedModule{
		Path:    "greet.go",
		Content: greetModuleSource,
	}))
}

func TestHandleJobSucceeds(t *testing.T) {
	fixture := newRunnerFixture(t)
	ctx := context.Background()
	fixture.cacheGreetModule(t)
	require.NoError(t, fixture.pending.SetPending(ctx, data_models.PendingExecution{
		ExecutionId:  "exec-1",
		WorkflowName: "greet",
		Parameters:   map[string]any{"name": "Ann"},
	}))

	result := fixture.svc.HandleJob(ctx, "exec-1")
	assert.Equal(t, data_models.ExecutionStatusSucceeded, result.Status)
	assert.Equal(t, "hello Ann", result.Output)

	// the pending record is consumed
	_, err := fixture.pending.GetPending(ctx, "exec-1")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	// the pushed result matches the returned one
	pushed, err := fixture.results.WaitForResult(ctx, "exec-1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, result.Status, pushed.Status)
	assert.Equal(t, result.Output, pushed.Output)
	assert.Empty(t, fixture.notifier.failedIds())
}

func TestHandleJobMissingPendingRecord(t *testing.T) {
	fixture := newRunnerFixture(t)
	ctx := context.Background()

	result := fixture.svc.HandleJob(ctx, "exec-ghost")
	assert.Equal(t, data_models.ExecutionStatusFailed, result.Status)
	assert.Equal(t, data_models.ErrorKindNotFound, result.ErrorKind)

	pushed, err := fixture.results.WaitForResult(ctx, "exec-ghost", time.Second)
	require.NoError(t, err)
	assert.Equal(t, data_models.ExecutionStatusFailed, pushed.Status)
	assert.Equal(t, []string{"exec-ghost"}, fixture.notifier.failedIds())
}

func TestHandleJobCancelledBeforeExecution(t *testing.T) {
	fixture := newRunnerFixture(t)
	ctx := context.Background()
	fixture.cacheGreetModule(t)
	require.NoError(t, fixture.pending.SetPending(ctx, data_models.PendingExecution{
		ExecutionId:  "exec-2",
		WorkflowName: "greet",
	}))
	existed, err := fixture.pending.MarkCancelled(ctx, "exec-2")
	require.NoError(t, err)
	require.True(t, existed)

	result := fixture.svc.HandleJob(ctx, "exec-2")
	assert.Equal(t, data_models.ExecutionStatusCancelled, result.Status)
	assert.Equal(t, data_models.ErrorKindCancelled, result.ErrorKind)

	_, err = fixture.pending.GetPending(ctx, "exec-2")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestHandleJobModuleNotCached(t *testing.T) {
	fixture := newRunnerFixture(t)
	ctx := context.Background()
	require.NoError(t, fixture.pending.SetPending(ctx, data_models.PendingExecution{
		ExecutionId:  "exec-3",
		WorkflowName: "ghost",
	}))

	result := fixture.svc.HandleJob(ctx, "exec-3")
	assert.Equal(t, data_models.ExecutionStatusFailed, result.Status)
	assert.Equal(t, data_models.ErrorKindModuleNotCached, result.ErrorKind)
	assert.Equal(t, []string{"exec-3"}, fixture.notifier.failedIds())
}

func TestRunProcessesRequestsUntilEOF(t *testing.T) {
	fixture := newRunnerFixture(t)
	ctx := context.Background()
	fixture.cacheGreetModule(t)
	require.NoError(t, fixture.pending.SetPending(ctx, data_models.PendingExecution{
		ExecutionId:  "exec-4",
		WorkflowName: "greet",
		Parameters:   map[string]any{"name": "Bo"},
	}))

	in := strings.NewReader(`{"executionId":"exec-4"}` + "\n")
	var out bytes.Buffer
	require.NoError(t, fixture.svc.Run(ctx, in, &out))

	assert.JSONEq(t, `{"executionId":"exec-4","status":"SUCCEEDED"}`, out.String())

	// the heartbeat registered this worker as alive
	alive, err := fixture.registry.IsAlive(ctx, "worker-test")
	require.NoError(t, err)
	assert.True(t, alive)
}
