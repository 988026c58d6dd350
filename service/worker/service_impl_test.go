// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcoreio/flowcore/broker"
	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
	"github.com/flowcoreio/flowcore/persistence/redisstore"
)

type fakeDelivery struct {
	job broker.JobMessage

	mu     sync.Mutex
	acked  bool
	nacked bool
}

func (d *fakeDelivery) Job() broker.JobMessage { return d.job }

func (d *fakeDelivery) Ack() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acked = true
}

func (d *fakeDelivery) Nack() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nacked = true
}

func (d *fakeDelivery) wasAcked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acked
}

type fakeConsumer struct {
	ch   chan broker.Delivery
	once sync.Once
}

func newFakeConsumer() *fakeConsumer {
	return &fakeConsumer{ch: make(chan broker.Delivery, 8)}
}

func (c *fakeConsumer) Deliveries() <-chan broker.Delivery { return c.ch }

func (c *fakeConsumer) Close() {
	c.once.Do(func() { close(c.ch) })
}

type managerFixture struct {
	svc      *managerService
	consumer *fakeConsumer
	spawner  *fakeSpawner
	pending  persistence.PendingStore
	results  persistence.ResultChannel
	registry persistence.WorkerRegistry
}

func newManagerFixture(t *testing.T) *managerFixture {
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
			MinWorkers:         1,
			MaxWorkers:         2,
			MaxConcurrentJobs:  2,
			ShutdownGrace:      time.Second,
			HeartbeatInterval:  time.Second,
			CancelPollInterval: 10 * time.Millisecond,
		},
	}
	consumer := newFakeConsumer()
	spawner := &fakeSpawner{}
	pending := redisstore.NewPendingStore(client, logger)
	results := redisstore.NewResultChannel(client, logger)
	registry := redisstore.NewWorkerRegistry(client, logger)
	svc := newManagerService(
		context.Background(), cfg, consumer, pending, results, registry, spawner.spawn, logger)
	return &managerFixture{
		svc:      svc,
		consumer: consumer,
		spawner:  spawner,
		pending:  pending,
		results:  results,
		registry: registry,
	}
}

func TestManagerDispatchesAndAcks(t *testing.T) {
	fixture := newManagerFixture(t)
	require.NoError(t, fixture.svc.Start())

	delivery := &fakeDelivery{job: broker.JobMessage{ExecutionId: "exec-1"}}
	fixture.consumer.ch <- delivery

	// the warm worker receives the job request
	proc := fixture.spawner.at(0)
	var req JobRequest
	select {
	case req = <-proc.sent:
	case <-time.After(time.Second):
		t.Fatal("job was not handed to the runner")
	}
	assert.Equal(t, "exec-1", req.ExecutionId)

	proc.done <- JobDone{ExecutionId: "exec-1", Status: data_models.ExecutionStatusSucceeded}

	assert.Eventually(t, delivery.wasAcked, time.Second, 10*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fixture.svc.Stop(ctx))
}

func TestManagerKillsCancelledJob(t *testing.T) {
	fixture := newManagerFixture(t)
	ctx := context.Background()

	require.NoError(t, fixture.pending.SetPending(ctx, data_models.PendingExecution{
		ExecutionId:  "exec-2",
		WorkflowName: "slow",
	}))
	existed, err := fixture.pending.MarkCancelled(ctx, "exec-2")
	require.NoError(t, err)
	require.True(t, existed)

	require.NoError(t, fixture.svc.Start())
	delivery := &fakeDelivery{job: broker.JobMessage{ExecutionId: "exec-2"}}
	fixture.consumer.ch <- delivery

	proc := fixture.spawner.at(0)
	select {
	case <-proc.sent:
	case <-time.After(time.Second):
		t.Fatal("job was not handed to the runner")
	}
	// the runner never reports back; the cancellation poll must kill it

	assert.Eventually(t, delivery.wasAcked, time.Second, 10*time.Millisecond)
	assert.True(t, proc.wasKilled())

	result, err := fixture.results.WaitForResult(ctx, "exec-2", time.Second)
	require.NoError(t, err)
	assert.Equal(t, data_models.ExecutionStatusCancelled, result.Status)
	assert.Equal(t, data_models.ErrorKindCancelled, result.ErrorKind)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fixture.svc.Stop(stopCtx))
}

func TestManagerHealthReportsWorkerLiveness(t *testing.T) {
	fixture := newManagerFixture(t)
	ctx := context.Background()
	require.NoError(t, fixture.svc.Start())

	// no heartbeat has been published yet, the pool member reads as dead
	status := fixture.svc.Health(ctx)
	require.Equal(t, 1, status.PoolSize)
	require.Len(t, status.Workers, 1)
	assert.False(t, status.Workers[0].Alive)
	assert.Nil(t, status.Workers[0].LastHeartbeatAt)

	workerId := status.Workers[0].WorkerId
	require.NoError(t, fixture.registry.Heartbeat(ctx, workerId, time.Minute))

	status = fixture.svc.Health(ctx)
	require.Len(t, status.Workers, 1)
	assert.True(t, status.Workers[0].Alive)
	require.NotNil(t, status.Workers[0].LastHeartbeatAt)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fixture.svc.Stop(stopCtx))
}

func TestManagerKillsJobCancelledAfterPickup(t *testing.T) {
	fixture := newManagerFixture(t)
	ctx := context.Background()

	require.NoError(t, fixture.pending.SetPending(ctx, data_models.PendingExecution{
		ExecutionId:  "exec-3",
		WorkflowName: "slow",
	}))

	require.NoError(t, fixture.svc.Start())
	delivery := &fakeDelivery{job: broker.JobMessage{ExecutionId: "exec-3"}}
	fixture.consumer.ch <- delivery

	proc := fixture.spawner.at(0)
	select {
	case <-proc.sent:
	case <-time.After(time.Second):
		t.Fatal("job was not handed to the runner")
	}

	// the cancel request lands while the job is running; the pending record
	// is still in place, so the flag is set and the poll picks it up
	existed, err := fixture.pending.MarkCancelled(ctx, "exec-3")
	require.NoError(t, err)
	require.True(t, existed)

	assert.Eventually(t, delivery.wasAcked, time.Second, 10*time.Millisecond)
	assert.True(t, proc.wasKilled())

	result, err := fixture.results.WaitForResult(ctx, "exec-3", time.Second)
	require.NoError(t, err)
	assert.Equal(t, data_models.ExecutionStatusCancelled, result.Status)
	assert.Equal(t, data_models.ErrorKindCancelled, result.ErrorKind)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fixture.svc.Stop(stopCtx))
}
