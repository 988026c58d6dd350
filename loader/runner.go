// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/persistence/data_models"
)

// entrypointName is the function every workflow module must export:
//
//	func Run(params map[string]any, ctx map[string]any) (any, error)
const entrypointName = "Run"

// Runner evaluates a workflow module through the cache-backed filesystem and
// invokes its entrypoint. A fresh interpreter is created per execution so no
// state survives between runs of different workflows in the same process.
type Runner struct {
	fs     *CacheFS
	logger log.Logger
}

func NewRunner(fs *CacheFS, logger log.Logger) *Runner {
	return &Runner{fs: fs, logger: logger}
}

// Execute resolves workflowPath against the module cache, interprets the
// module and calls its entrypoint with the execution's parameters and context.
// Returns ErrModuleNotFound when no cached candidate provides the path.
func (r *Runner) Execute(
	workflowPath string, execCtx data_models.ExecutionContext,
) (any, error) {
	relPath, err := r.fs.Resolve(workflowPath)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("resolved workflow module",
		tag.WorkflowName(workflowPath), tag.ModulePath(relPath))

	i := interp.New(interp.Options{SourcecodeFilesystem: r.fs})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loader: initialize interpreter: %w", err)
	}
	// the relative cache path is the file identity, so diagnostics are
	// stable across machines
	if _, err := i.EvalPath(relPath); err != nil {
		return nil, fmt.Errorf("loader: interpret %s: %w", relPath, err)
	}
	fnValue, err := i.Eval(entrypointName)
	if err != nil {
		return nil, fmt.Errorf("loader: %s must define %s(params, ctx map[string]any) (any, error): %w",
			relPath, entrypointName, err)
	}
	return invokeEntrypoint(fnValue, execCtx.Parameters, execCtx.ToMap())
}

func invokeEntrypoint(fn reflect.Value, params, ctx map[string]any) (any, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("loader: %s is not a function", entrypointName)
	}
	fnType := fn.Type()
	if fnType.NumIn() != 2 || fnType.NumOut() != 2 {
		return nil, fmt.Errorf("loader: %s must take (params, ctx map[string]any) and return (any, error)",
			entrypointName)
	}
	if params == nil {
		params = map[string]any{}
	}
	results := fn.Call([]reflect.Value{reflect.ValueOf(params), reflect.ValueOf(ctx)})
	if !results[1].IsNil() {
		runErr, ok := results[1].Interface().(error)
		if !ok {
			return nil, fmt.Errorf("loader: %s returned a non-error second value", entrypointName)
		}
		return nil, runErr
	}
	if !results[0].IsValid() || results[0].Interface() == nil {
		return nil, nil
	}
	return results[0].Interface(), nil
}
