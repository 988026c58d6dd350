// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package tag

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const LoggingCallAtKey = "logging-call-at"

// Tag is the interface for logging system
type Tag struct {
	// keep this field private
	field zap.Field
}

// Field returns a zap field
func (t *Tag) Field() zap.Field {
	return t.field
}

func newStringTag(key string, value string) Tag {
	return Tag{
		field: zap.String(key, value),
	}
}

func newInt64(key string, value int64) Tag {
	return Tag{
		field: zap.Int64(key, value),
	}
}

func newInt(key string, value int) Tag {
	return Tag{
		field: zap.Int(key, value),
	}
}

func newDurationTag(key string, value time.Duration) Tag {
	return Tag{
		field: zap.Duration(key, value),
	}
}

func newObjectTag(key string, value interface{}) Tag {
	return Tag{
		field: zap.String(key, fmt.Sprintf("%v", value)),
	}
}

func newErrorTag(key string, value error) Tag {
	//NOTE zap already chosen "error" as key
	return Tag{
		field: zap.Error(value),
	}
}

// TAGS

func Error(err error) Tag {
	return newErrorTag("error", err)
}

func Service(sv string) Tag {
	return newStringTag("service", sv)
}

func ExecutionId(id string) Tag {
	return newStringTag("executionId", id)
}

func WorkflowName(wf string) Tag {
	return newStringTag("workflowName", wf)
}

func OrgId(org string) Tag {
	return newStringTag("orgId", org)
}

func WorkerId(id string) Tag {
	return newStringTag("workerId", id)
}

func LockName(name string) Tag {
	return newStringTag("lockName", name)
}

func ModulePath(path string) Tag {
	return newStringTag("modulePath", path)
}

func Operation(op string) Tag {
	return newStringTag("operation", op)
}

func StatusCode(status int) Tag {
	return newInt("status", status)
}

func Counter(n int) Tag {
	return newInt("counter", n)
}

func PoolSize(n int) Tag {
	return newInt("poolSize", n)
}

func JobsCompleted(n int64) Tag {
	return newInt64("jobsCompleted", n)
}

func Duration(d time.Duration) Tag {
	return newDurationTag("duration", d)
}

func Timeout(d time.Duration) Tag {
	return newDurationTag("timeout", d)
}

func Value(v interface{}) Tag {
	return newObjectTag("value", v)
}
