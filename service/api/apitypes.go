// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

// Wire types of the execution gateway. They are deliberately decoupled from
// the persistence models so the stored shape can evolve without breaking
// clients.

type ExecutionSubmitRequest struct {
	WorkflowName string                     `json:"workflowName"`
	Parameters   map[string]any             `json:"parameters,omitempty"`
	Caller       data_models.CallerIdentity `json:"caller"`
	// OrgId is the caller's organization; nil for a caller without one
	OrgId *string `json:"orgId,omitempty"`
	// FormId optionally links the execution to the form that triggered it
	FormId *string `json:"formId,omitempty"`
}

type ExecutionSubmitResponse struct {
	ExecutionId string `json:"executionId"`
}

type ExecutionExecuteRequest struct {
	ExecutionSubmitRequest
	// TimeoutSeconds bounds the synchronous wait; 0 uses the service default
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`
}

type ExecutionExecuteResponse struct {
	ExecutionId    string                      `json:"executionId"`
	Status         data_models.ExecutionStatus `json:"status"`
	Output         any                         `json:"output,omitempty"`
	Error          string                      `json:"error,omitempty"`
	ErrorKind      data_models.ErrorKind       `json:"errorKind,omitempty"`
	DurationMillis int64                       `json:"durationMillis,omitempty"`
}

type ExecutionCancelRequest struct {
	ExecutionId string `json:"executionId"`
}

type ExecutionCancelResponse struct {
	// Cancelled is false when no pending record existed for the id
	Cancelled bool `json:"cancelled"`
}

type ExecutionDescribeRequest struct {
	ExecutionId string `json:"executionId"`
}

type ExecutionDescribeResponse struct {
	Execution data_models.PendingExecution `json:"execution"`
}

type ModuleUpsertRequest struct {
	// OrgId scopes the module; the global marker stores a shared module
	OrgId      string `json:"orgId"`
	ModulePath string `json:"modulePath"`
	Content    string `json:"content"`
}

type ModuleUpsertResponse struct {
	ContentHash string `json:"contentHash"`
}

type ModuleDescribeRequest struct {
	OrgId      string `json:"orgId"`
	ModulePath string `json:"modulePath"`
}

type ModuleDescribeResponse struct {
	Record data_models.ModuleRecord `json:"record"`
}

type ExecutionLogsRequest struct {
	ExecutionId string `json:"executionId"`
}

type ExecutionLogsResponse struct {
	Entries []data_models.LogEntry `json:"entries"`
}

type ModuleCacheInvalidateRequest struct {
	Path string `json:"path"`
}

type ModuleCacheClearResponse struct {
	Deleted int `json:"deleted"`
}

type ModuleCachePathsResponse struct {
	Paths []string `json:"paths"`
}

type ApiErrorResponse struct {
	Detail *string `json:"detail,omitempty"`
}
