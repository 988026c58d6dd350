// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"time"

	"github.com/flowcoreio/flowcore/persistence/data_models"
)

type SubmitRequest struct {
	WorkflowName string
	Parameters   map[string]any
	Caller       data_models.CallerIdentity
	// CallerOrgId is the caller's own organization, nil for callers with none
	CallerOrgId *string
	// FormId is set when the execution originates from a form submission
	FormId *string
}

// Gateway is the API-facing component: it writes a pending execution,
// enqueues a job, and either returns immediately or blocks on the result
// channel.
type Gateway interface {
	// Submit is fire-and-forget; returns the new execution id
	Submit(ctx context.Context, req SubmitRequest) (string, error)
	// ExecuteAndWait blocks on the result channel up to timeout.
	// A timeout returns persistence.ErrTimeout with the execution id still
	// set: the job may complete later with no further signal to this caller.
	ExecuteAndWait(ctx context.Context, req SubmitRequest, timeout time.Duration) (string, *data_models.ExecutionResult, error)
	// Cancel returns whether a pending record existed
	Cancel(ctx context.Context, executionId string) (bool, error)
	Describe(ctx context.Context, executionId string) (*data_models.PendingExecution, error)
}

// Notifier is invoked fire-and-forget on failed executions for operational
// alerting. Implementations must never block the caller.
type Notifier interface {
	NotifyFailure(executionId, workflowName string, result data_models.ExecutionResult)
}
