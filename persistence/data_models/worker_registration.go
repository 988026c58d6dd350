// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package data_models

import (
	"time"
)

// WorkerRegistration is refreshed with a TTL on every heartbeat.
// Absence of the registration key after TTL expiry means the worker is dead;
// no direct connection check is ever made.
type WorkerRegistration struct {
	WorkerId        string    `json:"workerId"`
	LastHeartbeatAt time.Time `json:"lastHeartbeatAt"`
}
