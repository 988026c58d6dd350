// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"

	"github.com/flowcoreio/flowcore/broker"
	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/persistence"
)

const PathMetrics = "/internal/metrics"
const PathHealth = "/internal/health"

type defaultServer struct {
	rootCtx context.Context
	cfg     config.Config
	logger  log.Logger

	engine     *gin.Engine
	httpServer *http.Server
	svc        Service
}

func NewDefaultWorkerServerWithGin(
	rootCtx context.Context,
	cfg config.Config,
	configPath string,
	consumer broker.JobConsumer,
	pending persistence.PendingStore,
	results persistence.ResultChannel,
	registry persistence.WorkerRegistry,
	logger log.Logger,
) Server {
	ginEngine := gin.Default()

	svc := NewManagerServiceImpl(rootCtx, cfg, configPath, consumer, pending, results, registry, logger)

	ginEngine.GET(PathMetrics, gin.WrapH(metricsHandler()))
	ginEngine.GET(PathHealth, func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Health(c.Request.Context()))
	})

	svrCfg := cfg.WorkerService.InternalHttpServer
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
		svc:        svc,
	}
}

func (s defaultServer) Start() error {
	go func() {
		err := s.httpServer.ListenAndServe()
		s.logger.Info("Internal Http Server for Worker service is closed", tag.Error(err))
	}()

	return s.svc.Start()
}

func (s defaultServer) Stop(ctx context.Context) error {
	err1 := s.httpServer.Shutdown(ctx)
	err2 := s.svc.Stop(ctx)
	return multierr.Combine(err1, err2)
}
