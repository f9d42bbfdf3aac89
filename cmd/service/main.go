package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	configs "assignment_service/config"
	"assignment_service/internal/metrics"
	"assignment_service/internal/server/health"
	"assignment_service/internal/server/httpapi"
	"assignment_service/internal/service"
	"assignment_service/internal/worker"
	"assignment_service/pkg/clock"
	"assignment_service/pkg/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := configs.Load()
	if err != nil {
		logging.New(zap.NewExample()).Fatal(ctx, "failed to load config", zap.Error(err))
	}

	log, err := logging.NewDevelopment(cfg.Production)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal(ctx, "service stopped with error", zap.Error(err))
	}
	log.Info(ctx, "service stopped")
}

func run(ctx context.Context, cfg *configs.Config, log *logging.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedule, err := cfg.Lifecycle.Schedule()
	if err != nil {
		return err
	}

	store, err := newStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	dir, closeCache := withCache(ctx, store.directory, cfg.Redis, log)
	defer closeCache()

	publisher, closePublisher, err := newPublisher(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		closePublisher(drainCtx)
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.NewPrometheus(registry, "assignment_service")
	if err != nil {
		return err
	}

	clk := clock.Real{}
	engine := service.NewAssignmentService(store.repo, dir, publisher, collector, clk, schedule, log.Named("engine"))
	queries := service.NewQueryService(store.repo, log.Named("queries"))

	sweeper := worker.NewSweepWorker(engine, clk, log, cfg.Lifecycle.SweepInterval)
	go sweeper.Start(ctx)
	defer sweeper.Stop()

	httpServer := &http.Server{
		Addr: cfg.HTTP.Address,
		Handler: httpapi.NewRouter(httpapi.RouterConfig{
			Handler:  httpapi.NewAssignmentHandler(engine, queries, clk),
			Logger:   log,
			Observer: collector,
			Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	healthServer := health.NewServer(log.Named("grpc"))
	listener, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info(ctx, "starting gRPC health server", zap.String("address", cfg.GRPC.Address))
		if err := healthServer.Serve(listener); err != nil {
			errCh <- err
		}
	}()
	go func() {
		log.Info(ctx, "starting HTTP server", zap.String("address", cfg.HTTP.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	healthServer.SetServing(true)

	select {
	case <-ctx.Done():
		log.Info(ctx, "shutting down server...")
	case err = <-errCh:
		log.Error(ctx, "server failed", zap.Error(err))
	}

	healthServer.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error(ctx, "http shutdown failed", zap.Error(shutdownErr))
	}
	healthServer.Stop()
	return err
}
