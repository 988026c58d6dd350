// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/config"
)

type poolMember struct {
	proc          workerProcess
	busy          bool
	jobsCompleted int
}

// workerPool keeps a warm set of runner processes between the configured
// floor and ceiling. Acquire blocks when every worker is busy and the pool is
// at its ceiling; Release hands the worker back and recycles it once it has
// completed its job quota.
type workerPool struct {
	cfg    config.WorkerServiceConfig
	spawn  func() (workerProcess, error)
	logger log.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	members map[string]*poolMember
	closed  bool
}

func newWorkerPool(
	cfg config.WorkerServiceConfig, spawn func() (workerProcess, error), logger log.Logger,
) *workerPool {
	p := &workerPool{
		cfg:     cfg,
		spawn:   spawn,
		logger:  logger,
		members: map[string]*poolMember{},
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Start brings the pool up to its floor.
func (p *workerPool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureMinLocked()
}

func (p *workerPool) ensureMinLocked() error {
	// a recycle or discard racing with Shutdown must not respawn workers
	// that nothing will ever stop
	if p.closed {
		return nil
	}
	for len(p.members) < p.cfg.MinWorkers {
		if err := p.spawnLocked(); err != nil {
			return err
		}
	}
	return nil
}

func (p *workerPool) spawnLocked() error {
	proc, err := p.spawn()
	if err != nil {
		return err
	}
	p.members[proc.Id()] = &poolMember{proc: proc}
	poolSizeGauge.Set(float64(len(p.members)))
	return nil
}

// Acquire returns an idle worker, scaling up to the ceiling before blocking.
func (p *workerPool) Acquire(ctx context.Context) (*poolMember, error) {
	// a Wait cannot observe ctx directly; wake the loop up when it expires
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.cond.Broadcast()
	})
	defer stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.closed {
			return nil, fmt.Errorf("worker pool is shut down")
		}
		for _, m := range p.members {
			if !m.busy {
				m.busy = true
				busyWorkersGauge.Inc()
				return m, nil
			}
		}
		if len(p.members) < p.cfg.MaxWorkers {
			if err := p.spawnLocked(); err != nil {
				return nil, err
			}
			continue
		}
		p.cond.Wait()
	}
}

// Release hands the worker back after a completed job, recycling it when it
// has reached the configured quota.
func (p *workerPool) Release(m *poolMember) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m.busy = false
	m.jobsCompleted++
	busyWorkersGauge.Dec()

	if p.cfg.RecycleAfterJobs > 0 && m.jobsCompleted >= p.cfg.RecycleAfterJobs {
		p.logger.Info("recycling worker after job quota",
			tag.WorkerId(m.proc.Id()), tag.JobsCompleted(int64(m.jobsCompleted)))
		workerRecyclesTotal.Inc()
		p.removeLocked(m)
		go p.stopWorker(m.proc)
		if err := p.ensureMinLocked(); err != nil {
			p.logger.Error("failed to respawn recycled worker", tag.Error(err))
		}
	}
	p.cond.Broadcast()
}

// Discard force-kills a worker whose job was cancelled and backfills the pool.
func (p *workerPool) Discard(m *poolMember) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.busy {
		m.busy = false
		busyWorkersGauge.Dec()
	}
	p.removeLocked(m)
	if err := m.proc.Kill(); err != nil {
		p.logger.Warn("failed to kill worker", tag.WorkerId(m.proc.Id()), tag.Error(err))
	}
	go func() { _ = m.proc.Wait() }()
	if err := p.ensureMinLocked(); err != nil {
		p.logger.Error("failed to respawn discarded worker", tag.Error(err))
	}
	p.cond.Broadcast()
}

func (p *workerPool) removeLocked(m *poolMember) {
	delete(p.members, m.proc.Id())
	poolSizeGauge.Set(float64(len(p.members)))
}

// Shutdown signals every worker to stop, waits out the grace period once for
// the whole pool, then force-kills the stragglers.
func (p *workerPool) Shutdown() error {
	p.mu.Lock()
	p.closed = true
	procs := make([]workerProcess, 0, len(p.members))
	for _, m := range p.members {
		procs = append(procs, m.proc)
	}
	p.members = map[string]*poolMember{}
	poolSizeGauge.Set(0)
	p.cond.Broadcast()
	p.mu.Unlock()

	errCh := make(chan error, len(procs))
	var wg sync.WaitGroup
	for _, proc := range procs {
		wg.Add(1)
		go func(proc workerProcess) {
			defer wg.Done()
			errCh <- p.stopWorker(proc)
		}(proc)
	}
	wg.Wait()
	close(errCh)
	var errs error
	for err := range errCh {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// stopWorker terminates one worker gracefully, escalating to SIGKILL after
// the grace period.
func (p *workerPool) stopWorker(proc workerProcess) error {
	if err := proc.SignalStop(); err != nil {
		p.logger.Warn("failed to signal worker stop", tag.WorkerId(proc.Id()), tag.Error(err))
	}
	waitCh := make(chan error, 1)
	go func() { waitCh <- proc.Wait() }()
	select {
	case err := <-waitCh:
		return err
	case <-time.After(p.cfg.ShutdownGrace):
		p.logger.Warn("worker did not exit within grace period, killing",
			tag.WorkerId(proc.Id()))
		if err := proc.Kill(); err != nil {
			return err
		}
		return <-waitCh
	}
}

func (p *workerPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members)
}

func (p *workerPool) WorkerIds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.members))
	for id := range p.members {
		ids = append(ids, id)
	}
	return ids
}
