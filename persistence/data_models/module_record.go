// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package data_models

import (
	"time"
)

// ModuleRecord is the durable (source-of-truth) copy of a workflow or
// shared-library module, read by organization+path. The module cache is
// warmed from these records.
type ModuleRecord struct {
	OrgId       string    `json:"orgId" db:"org_id"`
	ModulePath  string    `json:"modulePath" db:"module_path"`
	Content     string    `json:"content" db:"content"`
	ContentHash string    `json:"contentHash" db:"content_hash"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// WorkflowBinding maps a workflow to the organization it is bound to.
// OrgId is nil for a global (unbound) workflow.
type WorkflowBinding struct {
	WorkflowName string  `json:"workflowName" db:"workflow_name"`
	OrgId        *string `json:"orgId" db:"org_id"`
}
