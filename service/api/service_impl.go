// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/engine"
	"github.com/flowcoreio/flowcore/persistence"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

type serviceImpl struct {
	cfg     config.Config
	gateway engine.Gateway
	modules persistence.ModuleCache
	records persistence.ModuleRecordStore
	logs    persistence.ExecutionLogStore
	logger  log.Logger
}

func NewServiceImpl(
	cfg config.Config,
	gateway engine.Gateway,
	modules persistence.ModuleCache,
	records persistence.ModuleRecordStore,
	logs persistence.ExecutionLogStore,
	logger log.Logger,
) Service {
	return &serviceImpl{
		cfg:     cfg,
		gateway: gateway,
		modules: modules,
		records: records,
		logs:    logs,
		logger:  logger,
	}
}

func (s serviceImpl) SubmitExecution(
	ctx context.Context, request ExecutionSubmitRequest,
) (*ExecutionSubmitResponse, *ErrorWithStatus) {
	if request.WorkflowName == "" {
		return nil, NewErrorWithStatus(http.StatusBadRequest, "workflowName is required")
	}
	executionId, err := s.gateway.Submit(ctx, toSubmitRequest(request))
	if err != nil {
		return nil, s.handleUnknownError(err)
	}
	return &ExecutionSubmitResponse{ExecutionId: executionId}, nil
}

func (s serviceImpl) ExecuteAndWait(
	ctx context.Context, request ExecutionExecuteRequest,
) (*ExecutionExecuteResponse, *ErrorWithStatus) {
	if request.WorkflowName == "" {
		return nil, NewErrorWithStatus(http.StatusBadRequest, "workflowName is required")
	}
	timeout := s.cfg.ApiService.DefaultSyncWaitTimeout
	if request.TimeoutSeconds > 0 {
		timeout = time.Duration(request.TimeoutSeconds) * time.Second
	}

	executionId, result, err := s.gateway.ExecuteAndWait(ctx, toSubmitRequest(request.ExecutionSubmitRequest), timeout)
	if errors.Is(err, persistence.ErrTimeout) {
		// the job may still complete later; the timeout is a distinct
		// outcome for this caller, not a server error
		return &ExecutionExecuteResponse{
			ExecutionId: executionId,
			Status:      data_models.ExecutionStatusTimedOut,
			ErrorKind:   data_models.ErrorKindTimeout,
		}, nil
	}
	if err != nil {
		return nil, s.handleUnknownError(err)
	}
	return &ExecutionExecuteResponse{
		ExecutionId:    executionId,
		Status:         result.Status,
		Output:         result.Output,
		Error:          result.Error,
		ErrorKind:      result.ErrorKind,
		DurationMillis: result.DurationMillis,
	}, nil
}

func (s serviceImpl) CancelExecution(
	ctx context.Context, request ExecutionCancelRequest,
) (*ExecutionCancelResponse, *ErrorWithStatus) {
	cancelled, err := s.gateway.Cancel(ctx, request.ExecutionId)
	if err != nil {
		return nil, s.handleUnknownError(err)
	}
	return &ExecutionCancelResponse{Cancelled: cancelled}, nil
}

func (s serviceImpl) DescribeExecution(
	ctx context.Context, request ExecutionDescribeRequest,
) (*ExecutionDescribeResponse, *ErrorWithStatus) {
	pending, err := s.gateway.Describe(ctx, request.ExecutionId)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, NewErrorWithStatus(http.StatusNotFound, "execution is not pending")
	}
	if err != nil {
		return nil, s.handleUnknownError(err)
	}
	return &ExecutionDescribeResponse{Execution: *pending}, nil
}

func (s serviceImpl) UpsertModule(
	ctx context.Context, request ModuleUpsertRequest,
) (*ModuleUpsertResponse, *ErrorWithStatus) {
	if request.OrgId == "" || request.ModulePath == "" || request.Content == "" {
		return nil, NewErrorWithStatus(http.StatusBadRequest,
			"orgId, modulePath and content are required")
	}
	sum := sha256.Sum256([]byte(request.Content))
	contentHash := hex.EncodeToString(sum[:])

	// the durable record is the source of truth; write it first
	if err := s.records.UpsertRecord(ctx, data_models.ModuleRecord{
		OrgId:       request.OrgId,
		ModulePath:  request.ModulePath,
		Content:     request.Content,
		ContentHash: contentHash,
		UpdatedAt:   time.Now().UTC(),
	}); err != nil {
		return nil, s.handleUnknownError(err)
	}
	if err := s.modules.SetModule(ctx, data_models.CachedModule{
		Path:        request.ModulePath,
		Content:     request.Content,
		ContentHash: contentHash,
	}); err != nil {
		return nil, s.handleUnknownError(err)
	}
	s.logger.Info("module upserted",
		tag.OrgId(request.OrgId), tag.ModulePath(request.ModulePath))
	return &ModuleUpsertResponse{ContentHash: contentHash}, nil
}

func (s serviceImpl) DescribeModule(
	ctx context.Context, request ModuleDescribeRequest,
) (*ModuleDescribeResponse, *ErrorWithStatus) {
	record, err := s.records.GetRecord(ctx, request.OrgId, request.ModulePath)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, NewErrorWithStatus(http.StatusNotFound, "module does not exist")
	}
	if err != nil {
		return nil, s.handleUnknownError(err)
	}
	return &ModuleDescribeResponse{Record: *record}, nil
}

func (s serviceImpl) ListExecutionLogs(
	ctx context.Context, request ExecutionLogsRequest,
) (*ExecutionLogsResponse, *ErrorWithStatus) {
	entries, err := s.logs.ListByExecution(ctx, request.ExecutionId)
	if err != nil {
		return nil, s.handleUnknownError(err)
	}
	return &ExecutionLogsResponse{Entries: entries}, nil
}

func (s serviceImpl) InvalidateModule(
	ctx context.Context, request ModuleCacheInvalidateRequest,
) *ErrorWithStatus {
	if request.Path == "" {
		return NewErrorWithStatus(http.StatusBadRequest, "path is required")
	}
	if err := s.modules.InvalidateModule(ctx, request.Path); err != nil {
		return s.handleUnknownError(err)
	}
	return nil
}

func (s serviceImpl) ClearModuleCache(ctx context.Context) (*ModuleCacheClearResponse, *ErrorWithStatus) {
	deleted, err := s.modules.ClearModuleCache(ctx)
	if err != nil {
		return nil, s.handleUnknownError(err)
	}
	return &ModuleCacheClearResponse{Deleted: deleted}, nil
}

func (s serviceImpl) ListModulePaths(ctx context.Context) (*ModuleCachePathsResponse, *ErrorWithStatus) {
	paths, err := s.modules.GetAllModulePaths(ctx)
	if err != nil {
		return nil, s.handleUnknownError(err)
	}
	return &ModuleCachePathsResponse{Paths: paths}, nil
}

func (s serviceImpl) handleUnknownError(err error) *ErrorWithStatus {
	s.logger.Error("unknown error on operation", tag.Error(err))
	return NewErrorWithStatus(http.StatusInternalServerError, err.Error())
}

func toSubmitRequest(request ExecutionSubmitRequest) engine.SubmitRequest {
	return engine.SubmitRequest{
		WorkflowName: request.WorkflowName,
		Parameters:   request.Parameters,
		Caller:       request.Caller,
		CallerOrgId:  request.OrgId,
		FormId:       request.FormId,
	}
}
