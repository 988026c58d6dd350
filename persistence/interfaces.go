// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package persistence

import (
	"context"
	"time"

	"github.com/flowcoreio/flowcore/persistence/data_models"
)

// PendingStore holds the ephemeral request payload of a submitted execution.
type PendingStore interface {
	// SetPending is an idempotent upsert with the full pending TTL
	SetPending(ctx context.Context, pending data_models.PendingExecution) error
	// GetPending returns ErrNotFound when the record is absent
	GetPending(ctx context.Context, executionId string) (*data_models.PendingExecution, error)
	// DeletePending is a no-op if the record is absent
	DeletePending(ctx context.Context, executionId string) error
	// MarkCancelled flips the cancelled bit preserving the remaining TTL and
	// sets the out-of-band cancellation flag. Returns whether a pending
	// record existed; a missing record creates nothing.
	MarkCancelled(ctx context.Context, executionId string) (bool, error)
	// IsCancelled treats absence as "not cancelled" - only an explicit marker counts
	IsCancelled(ctx context.Context, executionId string) (bool, error)
}

// ResultChannel is the single rendezvous point bridging the asynchronous
// broker path with a synchronous caller.
type ResultChannel interface {
	PushResult(ctx context.Context, executionId string, result data_models.ExecutionResult) error
	// WaitForResult blocks up to timeout; returns ErrTimeout when nothing arrives
	WaitForResult(ctx context.Context, executionId string, timeout time.Duration) (*data_models.ExecutionResult, error)
}

// LockService is advisory cross-process mutual exclusion. A lock whose holder
// stalls past its TTL can be silently acquired by someone else; there is no
// fencing token.
type LockService interface {
	// Acquire returns (false, holder, nil) on contention - contention is not an error
	Acquire(ctx context.Context, name, ownerId, ownerLabel, operation string, ttl time.Duration) (bool, *data_models.LockInfo, error)
	// Release succeeds only if the stored owner matches
	Release(ctx context.Context, name, ownerId string) (bool, error)
	// Extend adds extra time to the lock's TTL, owner-checked
	Extend(ctx context.Context, name, ownerId string, extra time.Duration) (bool, error)
	GetLockInfo(ctx context.Context, name string) (*data_models.LockInfo, error)
	IsLocked(ctx context.Context, name string) (bool, error)
	// ForceRelease is an unconditional operational escape hatch
	ForceRelease(ctx context.Context, name string) error
}

// ModuleCache stores workflow/shared-library source, separate from the
// durable record store. Context-free variants exist because the loader's
// resolution path runs inside fs.FS.Open and has no caller context to pass;
// both variants operate on identical key formats.
type ModuleCache interface {
	GetModule(ctx context.Context, path string) (*data_models.CachedModule, error)
	SetModule(ctx context.Context, module data_models.CachedModule) error
	InvalidateModule(ctx context.Context, path string) error
	GetAllModulePaths(ctx context.Context) ([]string, error)
	// ClearModuleCache deletes every indexed content key, then clears the
	// index; returns the number of content keys deleted
	ClearModuleCache(ctx context.Context) (int, error)

	GetModuleSync(path string) (*data_models.CachedModule, error)
	GetAllModulePathsSync() ([]string, error)
}

// WorkerRegistry tracks worker liveness purely through TTL'd registrations.
type WorkerRegistry interface {
	Heartbeat(ctx context.Context, workerId string, ttl time.Duration) error
	GetRegistration(ctx context.Context, workerId string) (*data_models.WorkerRegistration, error)
	IsAlive(ctx context.Context, workerId string) (bool, error)
}

// ModuleRecordStore is the durable source of truth for module source,
// read by organization+path.
type ModuleRecordStore interface {
	GetRecord(ctx context.Context, orgId, modulePath string) (*data_models.ModuleRecord, error)
	ListRecordsByOrg(ctx context.Context, orgId string) ([]data_models.ModuleRecord, error)
	UpsertRecord(ctx context.Context, record data_models.ModuleRecord) error
	// GetWorkflowBinding returns ErrNotFound for an unknown workflow
	GetWorkflowBinding(ctx context.Context, workflowName string) (*data_models.WorkflowBinding, error)
	Close() error
}

// ExecutionLogStore receives append-only entries per execution id.
type ExecutionLogStore interface {
	Append(ctx context.Context, executionId, level, message string) error
	ListByExecution(ctx context.Context, executionId string) ([]data_models.LogEntry, error)
	Close() error
}
