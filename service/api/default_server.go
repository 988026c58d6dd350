// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/engine"
	"github.com/flowcoreio/flowcore/persistence"
)

const PathSubmitExecution = "/api/v1/flowcore/execution/submit"
const PathExecuteExecution = "/api/v1/flowcore/execution/execute"
const PathCancelExecution = "/api/v1/flowcore/execution/cancel"
const PathDescribeExecution = "/api/v1/flowcore/execution/describe"
const PathExecutionLogs = "/api/v1/flowcore/execution/logs"

const PathUpsertModule = "/api/v1/flowcore/module/upsert"
const PathDescribeModule = "/api/v1/flowcore/module/describe"

const PathInvalidateModule = "/api/v1/flowcore/module-cache/invalidate"
const PathClearModuleCache = "/api/v1/flowcore/module-cache/clear"
const PathListModulePaths = "/api/v1/flowcore/module-cache/paths"

type defaultServer struct {
	rootCtx    context.Context
	cfg        config.Config
	logger     log.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

func NewDefaultAPIServerWithGin(
	rootCtx context.Context,
	cfg config.Config,
	gateway engine.Gateway,
	modules persistence.ModuleCache,
	records persistence.ModuleRecordStore,
	logs persistence.ExecutionLogStore,
	logger log.Logger,
) Server {
	ginEngine := gin.Default()

	handler := newGinHandler(cfg, gateway, modules, records, logs, logger)

	ginEngine.POST(PathSubmitExecution, handler.SubmitExecution)
	ginEngine.POST(PathExecuteExecution, handler.ExecuteAndWait)
	ginEngine.POST(PathCancelExecution, handler.CancelExecution)
	ginEngine.POST(PathDescribeExecution, handler.DescribeExecution)
	ginEngine.POST(PathExecutionLogs, handler.ListExecutionLogs)

	ginEngine.POST(PathUpsertModule, handler.UpsertModule)
	ginEngine.POST(PathDescribeModule, handler.DescribeModule)

	ginEngine.POST(PathInvalidateModule, handler.InvalidateModule)
	ginEngine.POST(PathClearModuleCache, handler.ClearModuleCache)
	ginEngine.GET(PathListModulePaths, handler.ListModulePaths)

	svrCfg := cfg.ApiService.HttpServer
	httpServer := &http.Server{
		Addr:              svrCfg.Address,
		ReadTimeout:       svrCfg.ReadTimeout,
		WriteTimeout:      svrCfg.WriteTimeout,
		ReadHeaderTimeout: svrCfg.ReadHeaderTimeout,
		IdleTimeout:       svrCfg.IdleTimeout,
		MaxHeaderBytes:    svrCfg.MaxHeaderBytes,
		TLSConfig:         svrCfg.TLSConfig,
		Handler:           ginEngine,
		BaseContext: func(listener net.Listener) context.Context {
			// for graceful shutdown
			return rootCtx
		},
	}

	return &defaultServer{
		rootCtx:    rootCtx,
		cfg:        cfg,
		logger:     logger,
		engine:     ginEngine,
		httpServer: httpServer,
	}
}

func (s defaultServer) Start() error {
	go func() {
		err := s.httpServer.ListenAndServe()
		s.logger.Info("Http Server for API service is closed", tag.Error(err))
	}()

	return nil
}

func (s defaultServer) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
