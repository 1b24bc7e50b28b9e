package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/quote-optimizer/internal/async"
	"github.com/joseph-ayodele/quote-optimizer/internal/bootstrap"
	"github.com/joseph-ayodele/quote-optimizer/internal/common"
	"github.com/joseph-ayodele/quote-optimizer/internal/ingest"
	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
	repo "github.com/joseph-ayodele/quote-optimizer/internal/repository"
	svc "github.com/joseph-ayodele/quote-optimizer/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stdout)
	if err := cfg.ValidateServer(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repo.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open result store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.HealthCheck(ctx, 5*time.Second); err != nil {
		logger.Error("failed to ping result store", "error", err)
		os.Exit(1)
	}

	metrics, err := pipeline.NewMetrics()
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}
	analyzer, err := bootstrap.NewAnalyzer(cfg, logger, pipeline.WithMetrics(metrics))
	if err != nil {
		logger.Error("failed to build analyzer", "error", err)
		os.Exit(1)
	}

	queue := async.NewAnalysisQueue(analyzer, store, logger,
		async.WithWorkers(cfg.Server.QueueWorkers),
		async.WithQueueSize(cfg.Server.QueueSize),
		async.WithJobTimeout(cfg.Server.JobTimeout),
	)

	if cfg.Server.WatchDir != "" {
		if err := watchInbox(ctx, cfg.Server, queue, logger); err != nil {
			logger.Error("failed to watch inbox", "dir", cfg.Server.WatchDir, "error", err)
			os.Exit(1)
		}
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(svc.LoggingInterceptor(logger)))
	svc.RegisterQuoteAnalysisServer(grpcServer, svc.NewAnalysisService(analyzer, queue, store, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("quoted listening", "addr", addr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.JobTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
}

// watchInbox submits each debounced batch of files dropped into the inbox as one analysis.
func watchInbox(ctx context.Context, cfg common.ServerConfig, queue *async.AnalysisQueue, logger *slog.Logger) error {
	batches, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:      []string{cfg.WatchDir},
		Debounce:   cfg.WatchDebounce,
		SkipHidden: true,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("watching inbox", "dir", cfg.WatchDir, "debounce", cfg.WatchDebounce)
	go func() {
		for {
			select {
			case batch, ok := <-batches:
				if !ok {
					return
				}
				docs := ingest.ReadFiles(batch, logger)
				if len(docs) == 0 {
					continue
				}
				id, err := queue.Submit(ctx, pipeline.Input{Documents: docs})
				if err != nil {
					logger.Error("inbox submit failed", "files", len(docs), "error", err)
					continue
				}
				logger.Info("inbox batch submitted", "run_id", id, "files", len(docs))
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("inbox watcher error", "error", err)
			}
		}
	}()
	return nil
}
