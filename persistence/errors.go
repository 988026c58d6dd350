// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package persistence

import (
	"errors"
)

// ErrNotFound is returned when a record is absent. For a pending execution
// looked up by a worker this is fatal for that job and never retried: the
// payload's only copy is gone.
var ErrNotFound = errors.New("record not found")

// ErrTimeout is returned by a blocking wait that saw no result within the
// requested window. The job may still complete later with no further signal
// to that caller.
var ErrTimeout = errors.New("timed out waiting for result")

// ErrStoreUnavailable wraps network/backend failures against the shared
// store. It is always logged and returned, never swallowed: this layer is
// the coordination backbone.
var ErrStoreUnavailable = errors.New("shared store unavailable")
