// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"context"
)

// JobMessage is the only thing that crosses the broker: the payload itself
// lives in the pending-execution store, so a redelivered job simply re-reads
// the same record.
type JobMessage struct {
	ExecutionId string `json:"executionId"`
}

// JobQueue is the producer side, used by the execution gateway.
type JobQueue interface {
	Publish(ctx context.Context, msg JobMessage) error
	Close()
}

// Delivery is one consumed job plus its ack/nack handle.
type Delivery interface {
	Job() JobMessage
	Ack()
	Nack()
}

// JobConsumer is the consumer side, used by the worker pool manager. The
// broker guarantees at most one active consumer per delivered job.
type JobConsumer interface {
	Deliveries() <-chan Delivery
	Close()
}
