// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"github.com/flowcoreio/flowcore/common/log/tag"
)

// Logger is our abstraction for logging
// Usage examples:
//
//	 1) logger = logger.WithTags(
//	         tag.ExecutionId("some-execution-id"),
//	         tag.WorkflowName("greet"))
//	    logger.Info("execution picked up")
//	 2) logger.Info("execution picked up",
//	         tag.ExecutionId("some-execution-id"),
//	         tag.WorkflowName("greet"))
//	 Note: msg should be static, it is not recommended to use fmt.Sprintf() for msg.
//	       Anything dynamic should be tagged.
type Logger interface {
	Debug(msg string, tags ...tag.Tag)
	Info(msg string, tags ...tag.Tag)
	Warn(msg string, tags ...tag.Tag)
	Error(msg string, tags ...tag.Tag)
	Fatal(msg string, tags ...tag.Tag)
	WithTags(tags ...tag.Tag) Logger
}
