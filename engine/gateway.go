// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"time"

	"github.com/flowcoreio/flowcore/broker"
	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/common/uuid"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

type gatewayImpl struct {
	pending  persistence.PendingStore
	results  persistence.ResultChannel
	records  persistence.ModuleRecordStore
	jobQueue broker.JobQueue
	logger   log.Logger
}

func NewGateway(
	pending persistence.PendingStore,
	results persistence.ResultChannel,
	records persistence.ModuleRecordStore,
	jobQueue broker.JobQueue,
	logger log.Logger,
) Gateway {
	return &gatewayImpl{
		pending:  pending,
		results:  results,
		records:  records,
		jobQueue: jobQueue,
		logger:   logger,
	}
}

func (g *gatewayImpl) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	scope, err := g.resolveScope(ctx, req)
	if err != nil {
		return "", err
	}

	executionId := uuid.MustNewUUID()
	pending := data_models.PendingExecution{
		ExecutionId:  executionId,
		WorkflowName: req.WorkflowName,
		Parameters:   req.Parameters,
		Caller:       req.Caller,
		FormId:       req.FormId,
		CreatedAt:    time.Now().UTC(),
	}
	if scope != data_models.GlobalScope {
		pending.OrgId = &scope
	}

	// the pending record must exist before the job message: a worker that
	// receives the message and finds no record treats the job as lost
	if err := g.pending.SetPending(ctx, pending); err != nil {
		return "", err
	}
	if err := g.jobQueue.Publish(ctx, broker.JobMessage{ExecutionId: executionId}); err != nil {
		// undo so the TTL doesn't have to reclaim a job that never existed
		if delErr := g.pending.DeletePending(ctx, executionId); delErr != nil {
			g.logger.Error("failed to clean up pending record after publish failure",
				tag.Error(delErr), tag.ExecutionId(executionId))
		}
		return "", err
	}

	g.logger.Info("execution submitted",
		tag.ExecutionId(executionId),
		tag.WorkflowName(req.WorkflowName),
		tag.OrgId(scope))
	return executionId, nil
}

func (g *gatewayImpl) ExecuteAndWait(
	ctx context.Context, req SubmitRequest, timeout time.Duration,
) (string, *data_models.ExecutionResult, error) {
	executionId, err := g.Submit(ctx, req)
	if err != nil {
		return "", nil, err
	}
	result, err := g.results.WaitForResult(ctx, executionId, timeout)
	if err != nil {
		if errors.Is(err, persistence.ErrTimeout) {
			g.logger.Warn("synchronous wait timed out",
				tag.ExecutionId(executionId), tag.Timeout(timeout))
		}
		return executionId, nil, err
	}
	return executionId, result, nil
}

func (g *gatewayImpl) Cancel(ctx context.Context, executionId string) (bool, error) {
	existed, err := g.pending.MarkCancelled(ctx, executionId)
	if err != nil {
		return false, err
	}
	if existed {
		g.logger.Info("execution cancelled", tag.ExecutionId(executionId))
	}
	return existed, nil
}

func (g *gatewayImpl) Describe(ctx context.Context, executionId string) (*data_models.PendingExecution, error) {
	return g.pending.GetPending(ctx, executionId)
}

func (g *gatewayImpl) resolveScope(ctx context.Context, req SubmitRequest) (string, error) {
	binding, err := g.records.GetWorkflowBinding(ctx, req.WorkflowName)
	if errors.Is(err, persistence.ErrNotFound) {
		// unknown to the binding table means unbound
		return ResolveScope(nil, req.CallerOrgId), nil
	}
	if err != nil {
		return "", err
	}
	return ResolveScope(binding.OrgId, req.CallerOrgId), nil
}
