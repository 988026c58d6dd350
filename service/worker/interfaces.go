// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"time"
)

type Server interface {
	// Start will start running on the background
	Start() error
	Stop(ctx context.Context) error
}

// Service is the pool manager: it consumes job messages and dispatches them
// to runner child processes.
type Service interface {
	Start() error
	Stop(ctx context.Context) error
	// Health reports per-worker liveness from the heartbeat registry
	Health(ctx context.Context) HealthStatus
}

type WorkerHealth struct {
	WorkerId        string     `json:"workerId"`
	Alive           bool       `json:"alive"`
	LastHeartbeatAt *time.Time `json:"lastHeartbeatAt,omitempty"`
}

type HealthStatus struct {
	PoolSize int            `json:"poolSize"`
	Workers  []WorkerHealth `json:"workers"`
}
