// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package data_models

import (
	"time"
)

// LockInfo is the value stored under a lock key. Only the recorded owner may
// release or extend the lock; force-release bypasses the ownership check.
type LockInfo struct {
	OwnerId    string    `json:"ownerId"`
	OwnerLabel string    `json:"ownerLabel,omitempty"`
	Operation  string    `json:"operation,omitempty"`
	LockedAt   time.Time `json:"lockedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
