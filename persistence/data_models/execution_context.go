// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package data_models

// GlobalScope marks an execution that is not bound to any organization.
const GlobalScope = "__global__"

// ExecutionContext carries the resolved scope and call-time inputs of one run.
// It is passed explicitly into the workflow body. Nothing about an execution
// may live in process-wide globals: one worker process serves many executions
// over its lifetime.
type ExecutionContext struct {
	ExecutionId string         `json:"executionId"`
	// Scope is the resolved organization id, or GlobalScope
	Scope      string         `json:"scope"`
	Caller     CallerIdentity `json:"caller"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ToMap renders the context as the plain map handed to the workflow body.
func (c ExecutionContext) ToMap() map[string]any {
	return map[string]any{
		"executionId": c.ExecutionId,
		"scope":       c.Scope,
		"callerId":    c.Caller.Id,
		"callerName":  c.Caller.Name,
		"callerEmail": c.Caller.Email,
	}
}
