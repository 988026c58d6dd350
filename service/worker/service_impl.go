// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"sync"
	"time"

	"github.com/flowcoreio/flowcore/broker"
	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

type managerService struct {
	rootCtx  context.Context
	cfg      config.Config
	consumer broker.JobConsumer
	pending  persistence.PendingStore
	results  persistence.ResultChannel
	registry persistence.WorkerRegistry
	pool     *workerPool
	logger   log.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewManagerServiceImpl(
	rootCtx context.Context,
	cfg config.Config,
	configPath string,
	consumer broker.JobConsumer,
	pending persistence.PendingStore,
	results persistence.ResultChannel,
	registry persistence.WorkerRegistry,
	logger log.Logger,
) Service {
	spawn := func() (workerProcess, error) {
		return spawnRunner(configPath, logger)
	}
	return newManagerService(rootCtx, cfg, consumer, pending, results, registry, spawn, logger)
}

func newManagerService(
	rootCtx context.Context,
	cfg config.Config,
	consumer broker.JobConsumer,
	pending persistence.PendingStore,
	results persistence.ResultChannel,
	registry persistence.WorkerRegistry,
	spawn func() (workerProcess, error),
	logger log.Logger,
) *managerService {
	return &managerService{
		rootCtx:  rootCtx,
		cfg:      cfg,
		consumer: consumer,
		pending:  pending,
		results:  results,
		registry: registry,
		pool:     newWorkerPool(cfg.WorkerService, spawn, logger),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (s *managerService) Start() error {
	if err := s.pool.Start(); err != nil {
		return err
	}
	s.logger.Info("worker pool started", tag.PoolSize(s.pool.Size()))

	s.wg.Add(1)
	go s.dispatchLoop()
	return nil
}

func (s *managerService) dispatchLoop() {
	defer s.wg.Done()
	// the broker's prefetch already bounds in-flight deliveries; this
	// semaphore is the local backstop for the same limit
	sem := make(chan struct{}, s.cfg.WorkerService.MaxConcurrentJobs)
	for {
		select {
		case <-s.stopCh:
			return
		case delivery, ok := <-s.consumer.Deliveries():
			if !ok {
				return
			}
			sem <- struct{}{}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer func() { <-sem }()
				s.handleDelivery(delivery)
			}()
		}
	}
}

func (s *managerService) handleDelivery(delivery broker.Delivery) {
	executionId := delivery.Job().ExecutionId
	member, err := s.pool.Acquire(s.rootCtx)
	if err != nil {
		delivery.Nack()
		return
	}
	start := time.Now()
	if err := member.proc.Send(JobRequest{ExecutionId: executionId}); err != nil {
		s.logger.Error("failed to hand job to runner",
			tag.WorkerId(member.proc.Id()), tag.ExecutionId(executionId), tag.Error(err))
		s.pool.Discard(member)
		delivery.Nack()
		return
	}

	ticker := time.NewTicker(s.cfg.WorkerService.CancelPollInterval)
	defer ticker.Stop()
	for {
		select {
		case done, ok := <-member.proc.Done():
			if !ok {
				// the runner died mid-job; the job is not retried
				s.logger.Error("runner exited while executing",
					tag.WorkerId(member.proc.Id()), tag.ExecutionId(executionId))
				s.pool.Discard(member)
				s.pushResult(executionId, data_models.ExecutionResult{
					Status:         data_models.ExecutionStatusFailed,
					Error:          "worker exited unexpectedly",
					ErrorKind:      data_models.ErrorKindWorkflowError,
					DurationMillis: time.Since(start).Milliseconds(),
				})
				jobsTotal.WithLabelValues(string(data_models.ExecutionStatusFailed)).Inc()
				delivery.Ack()
				return
			}
			if done.ExecutionId != executionId {
				s.logger.Warn("runner reported completion for a different job",
					tag.WorkerId(member.proc.Id()), tag.ExecutionId(done.ExecutionId))
				continue
			}
			jobsTotal.WithLabelValues(string(done.Status)).Inc()
			jobDuration.Observe(time.Since(start).Seconds())
			s.pool.Release(member)
			delivery.Ack()
			return
		case <-ticker.C:
			cancelled, err := s.pending.IsCancelled(s.rootCtx, executionId)
			if err != nil {
				// a store hiccup must not kill a healthy job
				continue
			}
			if cancelled {
				s.logger.Info("killing runner for cancelled execution",
					tag.WorkerId(member.proc.Id()), tag.ExecutionId(executionId))
				cancelKillsTotal.Inc()
				s.pool.Discard(member)
				s.pushResult(executionId, data_models.ExecutionResult{
					Status:         data_models.ExecutionStatusCancelled,
					Error:          "execution cancelled",
					ErrorKind:      data_models.ErrorKindCancelled,
					DurationMillis: time.Since(start).Milliseconds(),
				})
				jobsTotal.WithLabelValues(string(data_models.ExecutionStatusCancelled)).Inc()
				delivery.Ack()
				return
			}
		case <-s.rootCtx.Done():
			delivery.Nack()
			return
		}
	}
}

func (s *managerService) pushResult(executionId string, result data_models.ExecutionResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.results.PushResult(ctx, executionId, result); err != nil {
		s.logger.Error("failed to push result on behalf of runner",
			tag.ExecutionId(executionId), tag.Error(err))
	}
}

// Health cross-checks the pool's bookkeeping against the heartbeat registry:
// a member whose registration expired is a wedged or dead child.
func (s *managerService) Health(ctx context.Context) HealthStatus {
	ids := s.pool.WorkerIds()
	status := HealthStatus{PoolSize: len(ids)}
	for _, id := range ids {
		entry := WorkerHealth{WorkerId: id}
		alive, err := s.registry.IsAlive(ctx, id)
		if err != nil {
			s.logger.Warn("failed to check worker liveness", tag.WorkerId(id), tag.Error(err))
		}
		entry.Alive = alive
		if alive {
			if reg, err := s.registry.GetRegistration(ctx, id); err == nil {
				entry.LastHeartbeatAt = &reg.LastHeartbeatAt
			}
		}
		status.Workers = append(status.Workers, entry)
	}
	return status
}

func (s *managerService) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.consumer.Close()

	err := s.pool.Shutdown()

	waitCh := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}
