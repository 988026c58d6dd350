// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/engine"
	"github.com/flowcoreio/flowcore/loader"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
	"github.com/flowcoreio/flowcore/service/worker"
)

// heartbeatTTLSlack is added to the heartbeat interval when setting the
// registration TTL, so one missed beat does not flap liveness.
const heartbeatTTLSlack = 3 * time.Second

const pushResultTimeout = 5 * time.Second

// warmLockTTL bounds a warm-up pass; a crashed warmer frees the lock by expiry.
const warmLockTTL = time.Minute

// Service is one runner child: it reads job requests from stdin, executes
// workflow modules in-process and reports completions on stdout. One job runs
// at a time; the pool manager owns all parallelism.
type Service struct {
	cfg      config.Config
	workerId string

	pending  persistence.PendingStore
	results  persistence.ResultChannel
	registry persistence.WorkerRegistry
	records  persistence.ModuleRecordStore
	cache    persistence.ModuleCache
	locks    persistence.LockService
	logs     persistence.ExecutionLogStore

	loaderFS *loader.CacheFS
	runner   *loader.Runner
	notifier engine.Notifier
	logger   log.Logger
}

func NewService(
	cfg config.Config,
	workerId string,
	pending persistence.PendingStore,
	results persistence.ResultChannel,
	registry persistence.WorkerRegistry,
	records persistence.ModuleRecordStore,
	cache persistence.ModuleCache,
	locks persistence.LockService,
	logs persistence.ExecutionLogStore,
	loaderFS *loader.CacheFS,
	notifier engine.Notifier,
	logger log.Logger,
) *Service {
	return &Service{
		cfg:      cfg,
		workerId: workerId,
		pending:  pending,
		results:  results,
		registry: registry,
		records:  records,
		cache:    cache,
		locks:    locks,
		logs:     logs,
		loaderFS: loaderFS,
		runner:   loader.NewRunner(loaderFS, logger),
		notifier: notifier,
		logger:   logger,
	}
}

// Run blocks until stdin is closed (the graceful stop signal) or ctx is done.
func (s *Service) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := s.warmUp(ctx); err != nil {
		return err
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	// register before the first job so the pool observes a live worker
	// from the start
	s.beat(heartbeatCtx, s.cfg.WorkerService.HeartbeatInterval+heartbeatTTLSlack)
	go s.heartbeatLoop(heartbeatCtx)

	decoder := json.NewDecoder(in)
	encoder := json.NewEncoder(out)
	for {
		var req worker.JobRequest
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				s.logger.Info("runner stopping", tag.WorkerId(s.workerId))
				return nil
			}
			return fmt.Errorf("runner: decode job request: %w", err)
		}
		result := s.HandleJob(ctx, req.ExecutionId)
		if err := encoder.Encode(worker.JobDone{
			ExecutionId: req.ExecutionId,
			Status:      result.Status,
		}); err != nil {
			return fmt.Errorf("runner: report job completion: %w", err)
		}
	}
}

// warmUp restores expired cache entries for the scopes this pool serves and
// pre-fetches the loader index, so the first job never pays for either.
func (s *Service) warmUp(ctx context.Context) error {
	scopes := []string{data_models.GlobalScope}
	if orgId := s.cfg.WorkerService.OrgId; orgId != "" {
		scopes = append(scopes, orgId)
	}
	for _, scope := range scopes {
		if err := s.warmScope(ctx, scope); err != nil {
			return fmt.Errorf("runner: warm module cache for %s: %w", scope, err)
		}
	}
	if err := s.loaderFS.PrefetchIndex(); err != nil {
		return fmt.Errorf("runner: prefetch module index: %w", err)
	}
	return nil
}

// warmScope re-caches one scope under a distributed lock so a pool of
// starting runners does not stampede the record store. Losing the lock means
// another worker is already warming; skipping is safe because expired entries
// are also restored lazily.
func (s *Service) warmScope(ctx context.Context, scope string) error {
	lockName := "module-warm:" + scope
	acquired, holder, err := s.locks.Acquire(
		ctx, lockName, s.workerId, "runner", "warm-module-cache", warmLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		ownerId := ""
		if holder != nil {
			ownerId = holder.OwnerId
		}
		s.logger.Info("module cache warm-up already in progress",
			tag.LockName(lockName), tag.WorkerId(ownerId))
		return nil
	}
	defer func() {
		if _, err := s.locks.Release(ctx, lockName, s.workerId); err != nil {
			s.logger.Warn("failed to release warm-up lock",
				tag.LockName(lockName), tag.Error(err))
		}
	}()
	_, err = loader.WarmCache(ctx, s.records, s.cache, scope, s.logger)
	return err
}

func (s *Service) heartbeatLoop(ctx context.Context) {
	interval := s.cfg.WorkerService.HeartbeatInterval
	ttl := interval + heartbeatTTLSlack
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.beat(ctx, ttl)
		}
	}
}

func (s *Service) beat(ctx context.Context, ttl time.Duration) {
	if err := s.registry.Heartbeat(ctx, s.workerId, ttl); err != nil {
		s.logger.Warn("heartbeat failed", tag.WorkerId(s.workerId), tag.Error(err))
	}
}

// HandleJob executes one job end to end and pushes its result. The returned
// result mirrors what was pushed.
func (s *Service) HandleJob(ctx context.Context, executionId string) data_models.ExecutionResult {
	start := time.Now()

	pending, err := s.pending.GetPending(ctx, executionId)
	if errors.Is(err, persistence.ErrNotFound) {
		// the record expired or was never written; the job is fatal, not retried
		return s.finish(executionId, "", start, data_models.ExecutionResult{
			Status:    data_models.ExecutionStatusFailed,
			Error:     "no pending record for execution",
			ErrorKind: data_models.ErrorKindNotFound,
		})
	}
	if err != nil {
		return s.finish(executionId, "", start, data_models.ExecutionResult{
			Status:    data_models.ExecutionStatusFailed,
			Error:     err.Error(),
			ErrorKind: data_models.ErrorKindStoreUnavailable,
		})
	}

	cancelled, err := s.pending.IsCancelled(ctx, executionId)
	if err == nil && cancelled {
		s.appendLog(ctx, executionId, "info", "execution cancelled before pickup")
		return s.finish(executionId, pending.WorkflowName, start, data_models.ExecutionResult{
			Status:    data_models.ExecutionStatusCancelled,
			Error:     "execution cancelled",
			ErrorKind: data_models.ErrorKindCancelled,
		})
	}

	s.appendLog(ctx, executionId, "info", "execution started: "+pending.WorkflowName)
	output, runErr := s.runner.Execute(pending.WorkflowName, engine.NewExecutionContext(*pending))
	if runErr != nil {
		errorKind := data_models.ErrorKindWorkflowError
		if errors.Is(runErr, loader.ErrModuleNotFound) {
			errorKind = data_models.ErrorKindModuleNotCached
		}
		s.appendLog(ctx, executionId, "error", "execution failed: "+runErr.Error())
		return s.finish(executionId, pending.WorkflowName, start, data_models.ExecutionResult{
			Status:    data_models.ExecutionStatusFailed,
			Error:     runErr.Error(),
			ErrorKind: errorKind,
		})
	}

	s.appendLog(ctx, executionId, "info", "execution succeeded")
	return s.finish(executionId, pending.WorkflowName, start, data_models.ExecutionResult{
		Status: data_models.ExecutionStatusSucceeded,
		Output: output,
	})
}

// finish deletes the pending record, stamps the duration, pushes the result
// and fires failure alerts. The pending record must outlive the execution:
// a cancel request arriving mid-run flips it and sets the cancel flag, which
// is what the pool manager's poll observes before hard-killing this process.
// A killed runner never reaches this point, so the record is left for the TTL.
func (s *Service) finish(
	executionId, workflowName string, start time.Time, result data_models.ExecutionResult,
) data_models.ExecutionResult {
	result.DurationMillis = time.Since(start).Milliseconds()

	pushCtx, cancel := context.WithTimeout(context.Background(), pushResultTimeout)
	defer cancel()
	if err := s.pending.DeletePending(pushCtx, executionId); err != nil {
		s.logger.Warn("failed to delete pending record",
			tag.ExecutionId(executionId), tag.Error(err))
	}
	if err := s.results.PushResult(pushCtx, executionId, result); err != nil {
		s.logger.Error("failed to push execution result",
			tag.ExecutionId(executionId), tag.Error(err))
	}
	if result.Status == data_models.ExecutionStatusFailed {
		s.notifier.NotifyFailure(executionId, workflowName, result)
	}
	s.logger.Info("job finished",
		tag.ExecutionId(executionId),
		tag.WorkflowName(workflowName),
		tag.Value(string(result.Status)),
		tag.Duration(time.Since(start)))
	return result
}

func (s *Service) appendLog(ctx context.Context, executionId, level, message string) {
	if s.logs == nil {
		return
	}
	if err := s.logs.Append(ctx, executionId, level, message); err != nil {
		s.logger.Warn("failed to append execution log entry",
			tag.ExecutionId(executionId), tag.Error(err))
	}
}
