// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

// The manager and its runner children speak newline-delimited JSON over
// stdin/stdout: one JobRequest down, one JobDone back per job. Logs go to
// stderr so they never corrupt the protocol stream.

type JobRequest struct {
	ExecutionId string `json:"executionId"`
}

type JobDone struct {
	ExecutionId string                      `json:"executionId"`
	Status      data_models.ExecutionStatus `json:"status"`
}
