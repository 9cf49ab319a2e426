package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/aggregate"
	"github.com/joseph-ayodele/fiscal-extract/internal/app"
	"github.com/joseph-ayodele/fiscal-extract/internal/async"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/ingest"
	"github.com/joseph-ayodele/fiscal-extract/internal/repository"
	"github.com/joseph-ayodele/fiscal-extract/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, app.Options{Persist: true}, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := repository.HealthCheck(ctx, a.DB, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(server.UnaryLogging(logger)))

	svc := server.NewExtractionService(a.Converter, a.Decoder, logger,
		server.WithImports(a.Processor, a.Jobs, a.Items),
		server.WithFlags(aggregate.DefaultFlags()),
	)
	server.RegisterExtractionServer(grpcServer, svc)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(server.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)
	if cfg.Watch.Dir != "" {
		if err := watch(ctx, cfg.Watch, queue, logger); err != nil {
			logger.Error("failed to start watcher", "dir", cfg.Watch.Dir, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("fiscald listening", "addr", cfg.Server.GRPCAddr, "db_driver", cfg.Database.Driver, "watch_dir", cfg.Watch.Dir)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ProcessTimeout)
	defer cancel()
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Warn("queue did not drain", "error", err)
	}
}

// watch feeds files dropped into the watched directory to the queue.
func watch(ctx context.Context, cfg common.WatchConfig, queue async.Queue, logger *slog.Logger) error {
	family, ok := constants.ParseFamily(cfg.Family)
	if !ok {
		return common.NewAppError("CONFIG_ERROR", "WATCH_FAMILY is not a known family", common.ErrInvalidInput)
	}
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Dir},
		InitialScan: true,
		Debounce:    cfg.Debounce,
		SkipHidden:  true,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	go func() {
		for path := range events {
			if err := queue.Enqueue(ctx, async.Job{Path: path, Family: family}); err != nil {
				logger.Warn("watch.enqueue.failed", "path", path, "error", err)
			}
		}
	}()
	go func() {
		for err := range errs {
			logger.Warn("watch.error", "error", err)
		}
	}()
	return nil
}
