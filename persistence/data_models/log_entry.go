// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package data_models

import (
	"time"
)

// LogEntry is one append-only execution log record.
type LogEntry struct {
	ExecutionId string    `json:"executionId" db:"execution_id"`
	Seq         int64     `json:"seq" db:"seq"`
	Level       string    `json:"level" db:"level"`
	Message     string    `json:"message" db:"message"`
	LoggedAt    time.Time `json:"loggedAt" db:"logged_at"`
}
