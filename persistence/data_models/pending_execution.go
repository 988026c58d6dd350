// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package data_models

import (
	"time"
)

// PendingExecutionVersion is bumped whenever the wire shape of
// PendingExecution changes, so that a writer/reader skew is detected
// instead of silently dropping fields.
const PendingExecutionVersion = 1

type CallerIdentity struct {
	Id    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// PendingExecution is the ephemeral request record a worker reads to start a job.
// It is written by the gateway before the job message is enqueued, read and then
// deleted by the worker that picks the job up, and reclaimed by TTL if orphaned.
// The only mutation after creation is flipping Cancelled.
type PendingExecution struct {
	Version      int            `json:"version"`
	ExecutionId  string         `json:"executionId"`
	WorkflowName string         `json:"workflowName"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	OrgId        *string        `json:"orgId,omitempty"`
	Caller       CallerIdentity `json:"caller"`
	FormId       *string        `json:"formId,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	Cancelled    bool           `json:"cancelled"`
}
