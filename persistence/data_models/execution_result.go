// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package data_models

type ExecutionStatus string

const (
	ExecutionStatusSucceeded ExecutionStatus = "SUCCEEDED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusCancelled ExecutionStatus = "CANCELLED"
	ExecutionStatusTimedOut  ExecutionStatus = "TIMED_OUT"
)

type ErrorKind string

const (
	ErrorKindNone             ErrorKind = ""
	ErrorKindNotFound         ErrorKind = "NOT_FOUND"
	ErrorKindTimeout          ErrorKind = "TIMEOUT"
	ErrorKindCancelled        ErrorKind = "CANCELLED"
	ErrorKindStoreUnavailable ErrorKind = "STORE_UNAVAILABLE"
	ErrorKindModuleNotCached  ErrorKind = "MODULE_NOT_CACHED"
	ErrorKindWorkflowError    ErrorKind = "WORKFLOW_ERROR"
)

// ExecutionResult is produced by a worker after a run and pushed exactly once
// to the result channel, where it is consumed at most once by the single waiter.
type ExecutionResult struct {
	Status         ExecutionStatus `json:"status"`
	Output         any             `json:"output,omitempty"`
	Error          string          `json:"error,omitempty"`
	ErrorKind      ErrorKind       `json:"errorKind,omitempty"`
	DurationMillis int64           `json:"durationMillis"`
}
