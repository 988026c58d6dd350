// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"context"
	"fmt"
	rawLog "log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/flowcoreio/flowcore/broker"
	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/config"
	"github.com/flowcoreio/flowcore/engine"
	"github.com/flowcoreio/flowcore/loader"
	"github.com/flowcoreio/flowcore/persistence/redisstore"
	"github.com/flowcoreio/flowcore/persistence/sql"
	"github.com/flowcoreio/flowcore/service/api"
	"github.com/flowcoreio/flowcore/service/runner"
	"github.com/flowcoreio/flowcore/service/worker"
)

const ApiServiceName = "api"
const WorkerServiceName = "worker"

// RunnerServiceName is internal: runner processes are spawned by the worker
// pool manager, never started by operators directly.
const RunnerServiceName = "runner"

const FlagConfig = "config"
const FlagService = "service"
const FlagWorkerId = "worker-id"

func StartFlowCoreServerCli(c *cli.Context) {
	// register interrupt signal for graceful shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	configPath := c.String(FlagConfig)
	services := getServices(c)

	cfg, err := config.NewConfig(configPath)
	if err != nil {
		rawLog.Fatalf("Unable to load config for path %v because of error %v", configPath, err)
	}

	if services[RunnerServiceName] {
		runRunner(rootCtx, cfg, c.String(FlagWorkerId))
		return
	}

	shutdownFunc := StartFlowCoreServer(rootCtx, cfg, configPath, services)
	// wait for os signals
	<-rootCtx.Done()

	ctx, cancF := context.WithTimeout(context.Background(), time.Second*10)
	defer cancF()
	err = shutdownFunc(ctx)
	if err != nil {
		fmt.Println("shutdown error:", err)
	}
}

type GracefulShutdown func(ctx context.Context) error

func StartFlowCoreServer(
	rootCtx context.Context, cfg *config.Config, configPath string, services map[string]bool,
) GracefulShutdown {
	if len(services) == 0 {
		services = map[string]bool{ApiServiceName: true, WorkerServiceName: true}
	}

	zapLogger, err := cfg.Log.NewZapLogger()
	if err != nil {
		rawLog.Fatalf("Unable to create a new zap logger %v", err)
	}
	logger := log.NewLogger(zapLogger)
	logger.Info("config is loaded", tag.Value(cfg.String()))
	err = cfg.ValidateAndSetDefaults()
	if err != nil {
		logger.Fatal("config is invalid", tag.Error(err))
	}

	redisClient := redisstore.NewClient(cfg.Redis, logger)
	pending := redisstore.NewPendingStore(redisClient, logger)
	results := redisstore.NewResultChannel(redisClient, logger)
	moduleCache := redisstore.NewModuleCache(redisClient, logger)

	recordStore, err := sql.NewSQLModuleRecordStore(cfg.Database.SQL, logger)
	if err != nil {
		logger.Fatal("error on persistence setup", tag.Error(err))
	}
	logStore, err := sql.NewSQLExecutionLogStore(cfg.Database.SQL, logger)
	if err != nil {
		logger.Fatal("error on execution log setup", tag.Error(err))
	}

	var jobQueue broker.JobQueue
	var apiServer api.Server
	if services[ApiServiceName] {
		jobQueue, err = broker.NewPulsarJobQueue(*cfg.Broker.Pulsar, logger)
		if err != nil {
			logger.Fatal("Failed to create job queue", tag.Error(err))
		}
		gateway := engine.NewGateway(pending, results, recordStore, jobQueue, logger)
		apiServer = api.NewDefaultAPIServerWithGin(
			rootCtx, *cfg, gateway, moduleCache, recordStore, logStore,
			logger.WithTags(tag.Service(ApiServiceName)))
		err = apiServer.Start()
		if err != nil {
			logger.Fatal("Failed to start api server", tag.Error(err))
		}
	}

	var workerServer worker.Server
	if services[WorkerServiceName] {
		consumer, err := broker.NewPulsarJobConsumer(
			*cfg.Broker.Pulsar, cfg.WorkerService.MaxConcurrentJobs, logger)
		if err != nil {
			logger.Fatal("Failed to create job consumer", tag.Error(err))
		}
		registry := redisstore.NewWorkerRegistry(redisClient, logger)
		workerServer = worker.NewDefaultWorkerServerWithGin(
			rootCtx, *cfg, configPath, consumer, pending, results, registry,
			logger.WithTags(tag.Service(WorkerServiceName)))
		err = workerServer.Start()
		if err != nil {
			logger.Fatal("Failed to start worker server", tag.Error(err))
		}
	}

	return func(ctx context.Context) error {
		// graceful shutdown
		var errs error
		// first stop taking new API requests
		if apiServer != nil {
			err := apiServer.Stop(ctx)
			if err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		if workerServer != nil {
			err := workerServer.Stop(ctx)
			if err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		if jobQueue != nil {
			jobQueue.Close()
		}
		if err := recordStore.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
		if err := logStore.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
		if err := redisClient.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
		return errs
	}
}

// runRunner is the child-process entrypoint: it serves jobs over
// stdin/stdout until the manager closes the pipe.
func runRunner(rootCtx context.Context, cfg *config.Config, workerId string) {
	zapLogger, err := cfg.Log.NewZapLogger()
	if err != nil {
		rawLog.Fatalf("Unable to create a new zap logger %v", err)
	}
	logger := log.NewLogger(zapLogger).WithTags(tag.Service(RunnerServiceName))
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		logger.Fatal("config is invalid", tag.Error(err))
	}
	if workerId == "" {
		logger.Fatal("runner requires a worker id")
	}

	redisClient := redisstore.NewClient(cfg.Redis, logger)
	defer redisClient.Close()
	pending := redisstore.NewPendingStore(redisClient, logger)
	results := redisstore.NewResultChannel(redisClient, logger)
	registry := redisstore.NewWorkerRegistry(redisClient, logger)
	moduleCache := redisstore.NewModuleCache(redisClient, logger)
	locks := redisstore.NewLockService(redisClient, logger)

	recordStore, err := sql.NewSQLModuleRecordStore(cfg.Database.SQL, logger)
	if err != nil {
		logger.Fatal("error on persistence setup", tag.Error(err))
	}
	defer recordStore.Close()
	logStore, err := sql.NewSQLExecutionLogStore(cfg.Database.SQL, logger)
	if err != nil {
		logger.Fatal("error on execution log setup", tag.Error(err))
	}
	defer logStore.Close()

	notifier := engine.NewNoopNotifier()
	if url := cfg.WorkerService.FailureWebhookURL; url != "" {
		notifier = engine.NewWebhookNotifier(url, logger)
	}

	loaderFS := loader.NewCacheFS(moduleCache, os.DirFS("."), logger)
	svc := runner.NewService(*cfg, workerId, pending, results, registry, recordStore,
		moduleCache, locks, logStore, loaderFS, notifier, logger)
	if err := svc.Run(rootCtx, os.Stdin, os.Stdout); err != nil {
		logger.Fatal("runner terminated abnormally", tag.Error(err))
	}
}

func getServices(c *cli.Context) map[string]bool {
	val := strings.TrimSpace(c.String(FlagService))
	tokens := strings.Split(val, ",")

	if len(tokens) == 0 {
		rawLog.Fatal("No services specified for starting")
	}

	services := map[string]bool{}
	for _, token := range tokens {
		t := strings.TrimSpace(token)
		services[t] = true
	}

	return services
}
