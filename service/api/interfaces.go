// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
)

type Server interface {
	// Start will start running on the background
	Start() error
	Stop(ctx context.Context) error
}

// Service is the API service decoupled from the REST framework, so the
// handlers stay a thin translation layer over it.
type Service interface {
	SubmitExecution(ctx context.Context, request ExecutionSubmitRequest) (
		resp *ExecutionSubmitResponse, err *ErrorWithStatus)
	ExecuteAndWait(ctx context.Context, request ExecutionExecuteRequest) (
		resp *ExecutionExecuteResponse, err *ErrorWithStatus)
	CancelExecution(ctx context.Context, request ExecutionCancelRequest) (
		resp *ExecutionCancelResponse, err *ErrorWithStatus)
	DescribeExecution(ctx context.Context, request ExecutionDescribeRequest) (
		resp *ExecutionDescribeResponse, err *ErrorWithStatus)

	UpsertModule(ctx context.Context, request ModuleUpsertRequest) (
		resp *ModuleUpsertResponse, err *ErrorWithStatus)
	DescribeModule(ctx context.Context, request ModuleDescribeRequest) (
		resp *ModuleDescribeResponse, err *ErrorWithStatus)
	ListExecutionLogs(ctx context.Context, request ExecutionLogsRequest) (
		resp *ExecutionLogsResponse, err *ErrorWithStatus)

	InvalidateModule(ctx context.Context, request ModuleCacheInvalidateRequest) *ErrorWithStatus
	ClearModuleCache(ctx context.Context) (resp *ModuleCacheClearResponse, err *ErrorWithStatus)
	ListModulePaths(ctx context.Context) (resp *ModuleCachePathsResponse, err *ErrorWithStatus)
}
