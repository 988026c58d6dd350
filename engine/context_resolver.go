// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

// ResolveScope computes the organization scope of a run.
//
// If the workflow is bound to an organization, the run is scoped to that
// organization no matter who triggered it: an org-scoped automation always
// acts on its own organization's data. If the workflow is global, the run is
// scoped to the caller's organization, so a global trigger can never leak
// across an organization boundary; a caller with no organization gets the
// global marker.
func ResolveScope(workflowOrgId *string, callerOrgId *string) string {
	if workflowOrgId != nil && *workflowOrgId != "" {
		return *workflowOrgId
	}
	if callerOrgId != nil && *callerOrgId != "" {
		return *callerOrgId
	}
	return data_models.GlobalScope
}

// NewExecutionContext builds the per-call context object handed to the
// workflow body. Parameters travel here explicitly, never through
// process-wide globals.
func NewExecutionContext(pending data_models.PendingExecution) data_models.ExecutionContext {
	scope := data_models.GlobalScope
	if pending.OrgId != nil && *pending.OrgId != "" {
		scope = *pending.OrgId
	}
	return data_models.ExecutionContext{
		ExecutionId: pending.ExecutionId,
		Scope:       scope,
		Caller:      pending.Caller,
		Parameters:  pending.Parameters,
	}
}
