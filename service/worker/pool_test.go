// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/config"
)

type fakeProcess struct {
	id   string
	sent chan JobRequest
	done chan JobDone

	mu      sync.Mutex
	stopped bool
	killed  bool
	waitCh  chan struct{}
	once    sync.Once
}

func newFakeProcess(id string) *fakeProcess {
	return &fakeProcess{
		id:     id,
		sent:   make(chan JobRequest, 8),
		done:   make(chan JobDone),
		waitCh: make(chan struct{}),
	}
}

func (f *fakeProcess) Id() string { return f.id }

func (f *fakeProcess) Send(req JobRequest) error {
	f.sent <- req
	return nil
}

func (f *fakeProcess) Done() <-chan JobDone { return f.done }

func (f *fakeProcess) SignalStop() error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	f.exit()
	return nil
}

func (f *fakeProcess) Kill() error {
	f.mu.Lock()
	f.killed = true
	f.mu.Unlock()
	f.exit()
	return nil
}

func (f *fakeProcess) Wait() error {
	<-f.waitCh
	return nil
}

func (f *fakeProcess) exit() {
	f.once.Do(func() {
		close(f.waitCh)
		close(f.done)
	})
}

func (f *fakeProcess) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeProcess) wasKilled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.killed
}

type fakeSpawner struct {
	mu      sync.Mutex
	spawned []*fakeProcess
}

func (s *fakeSpawner) spawn() (workerProcess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc := newFakeProcess(fmt.Sprintf("worker-%d", len(s.spawned)))
	s.spawned = append(s.spawned, proc)
	return proc, nil
}

func (s *fakeSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spawned)
}

func (s *fakeSpawner) at(i int) *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawned[i]
}

func newTestPool(cfg config.WorkerServiceConfig) (*workerPool, *fakeSpawner) {
	spawner := &fakeSpawner{}
	return newWorkerPool(cfg, spawner.spawn, log.NewDevelopmentLogger()), spawner
}

func TestPoolStartsAtFloor(t *testing.T) {
	pool, spawner := newTestPool(config.WorkerServiceConfig{
		MinWorkers:    2,
		MaxWorkers:    4,
		ShutdownGrace: time.Second,
	})
	require.NoError(t, pool.Start())
	assert.Equal(t, 2, pool.Size())
	assert.Equal(t, 2, spawner.count())
	require.NoError(t, pool.Shutdown())
}

func TestPoolScalesUpToCeilingThenBlocks(t *testing.T) {
	pool, spawner := newTestPool(config.WorkerServiceConfig{
		MinWorkers:    1,
		MaxWorkers:    3,
		ShutdownGrace: time.Second,
	})
	require.NoError(t, pool.Start())

	ctx := context.Background()
	var members []*poolMember
	for i := 0; i < 3; i++ {
		m, err := pool.Acquire(ctx)
		require.NoError(t, err)
		members = append(members, m)
	}
	assert.Equal(t, 3, pool.Size())
	assert.Equal(t, 3, spawner.count())

	// at the ceiling with every worker busy, Acquire blocks until the
	// context expires
	blockedCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err := pool.Acquire(blockedCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// releasing one unblocks the next Acquire without spawning
	pool.Release(members[0])
	m, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, spawner.count())
	pool.Release(m)
	require.NoError(t, pool.Shutdown())
}

func TestPoolRecyclesAfterJobQuota(t *testing.T) {
	pool, spawner := newTestPool(config.WorkerServiceConfig{
		MinWorkers:       1,
		MaxWorkers:       2,
		RecycleAfterJobs: 2,
		ShutdownGrace:    time.Second,
	})
	require.NoError(t, pool.Start())
	first := spawner.at(0)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		m, err := pool.Acquire(ctx)
		require.NoError(t, err)
		require.Equal(t, first.id, m.proc.Id())
		pool.Release(m)
	}

	assert.Eventually(t, first.wasStopped, time.Second, 10*time.Millisecond,
		"worker should be stopped after reaching its job quota")
	assert.Equal(t, 1, pool.Size())
	assert.Equal(t, 2, spawner.count())
	require.NoError(t, pool.Shutdown())
}

func TestPoolDiscardKillsAndBackfills(t *testing.T) {
	pool, spawner := newTestPool(config.WorkerServiceConfig{
		MinWorkers:    1,
		MaxWorkers:    2,
		ShutdownGrace: time.Second,
	})
	require.NoError(t, pool.Start())

	m, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	first := spawner.at(0)
	require.Equal(t, first.id, m.proc.Id())

	pool.Discard(m)
	assert.True(t, first.wasKilled())
	assert.Equal(t, 1, pool.Size())
	assert.Equal(t, 2, spawner.count())
	require.NoError(t, pool.Shutdown())
}

func TestPoolDiscardAfterShutdownDoesNotRespawn(t *testing.T) {
	pool, spawner := newTestPool(config.WorkerServiceConfig{
		MinWorkers:    1,
		MaxWorkers:    2,
		ShutdownGrace: time.Second,
	})
	require.NoError(t, pool.Start())

	m, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, pool.Shutdown())

	// a discard landing after shutdown (e.g. the killed worker's done
	// channel closing mid-job) must not backfill the pool
	pool.Discard(m)
	assert.Zero(t, pool.Size())
	assert.Equal(t, 1, spawner.count())
}

func TestPoolShutdownStopsEveryWorker(t *testing.T) {
	pool, spawner := newTestPool(config.WorkerServiceConfig{
		MinWorkers:    3,
		MaxWorkers:    3,
		ShutdownGrace: time.Second,
	})
	require.NoError(t, pool.Start())
	require.NoError(t, pool.Shutdown())

	for i := 0; i < spawner.count(); i++ {
		assert.True(t, spawner.at(i).wasStopped())
	}
	assert.Zero(t, pool.Size())

	_, err := pool.Acquire(context.Background())
	assert.Error(t, err)
}
