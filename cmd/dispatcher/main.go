// cmd/dispatcher/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpc_api "kitchen-dispatch/internal/api/grpc"
	http_api "kitchen-dispatch/internal/api/http"
	"kitchen-dispatch/internal/config"
	"kitchen-dispatch/internal/domain"
	"kitchen-dispatch/internal/infra/etcd"
	"kitchen-dispatch/internal/master"
	"kitchen-dispatch/internal/scheduler"
	"kitchen-dispatch/internal/tracing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

func main() {
	// 1. Initialize logger and tracer
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	tracerShutdown, err := tracing.InitTracer("kitchen-dispatch-dispatcher", os.Stderr)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Printf("failed to shutdown tracer: %v", err)
		}
	}()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 3. Root context and graceful shutdown
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(cancel)

	// 4. Optional etcd roster
	var roster domain.RosterObserver = domain.NopRoster{}
	if len(cfg.EtcdEndpoints) > 0 {
		etcdClient, err := etcd.NewClient(cfg.EtcdEndpoints, cfg.EtcdTimeout)
		if err != nil {
			log.Fatalf("Failed to create etcd client: %v", err)
		}
		defer etcdClient.Close()

		publisher := etcd.NewRosterPublisher(etcdClient, cfg.RosterTTL, logger)
		if err := publisher.Start(rootCtx); err != nil {
			log.Fatalf("Failed to start etcd roster: %v", err)
		}
		defer func() {
			revokeCtx, revokeCancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer revokeCancel()
			if err := publisher.Close(revokeCtx); err != nil {
				logger.Error("failed to revoke roster lease", "error", err)
			}
		}()
		roster = publisher
		logger.Info("announcing roster to etcd", "endpoints", cfg.EtcdEndpoints)
	}

	// 5. Day starts: fresh registry
	dispatcher := master.NewDispatcher(master.NewRegistry(), roster, logger)

	shifts, err := scheduler.NewShiftScheduler(dispatcher, config.CronParser, cfg.DayStartCron, cfg.DayEndCron, logger)
	if err != nil {
		log.Fatalf("Failed to schedule shifts: %v", err)
	}
	go func() {
		_ = shifts.Start(rootCtx)
	}()

	// 6. gRPC dispatch service
	lis, err := net.Listen("tcp", cfg.GrpcListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen for gRPC: %v", err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	grpc_api.Register(grpcServer, grpc_api.NewServer(dispatcher, logger))

	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GrpcListenAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("gRPC server failed: %v", err)
		}
	}()

	// 7. Roster view and metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	http_api.NewRosterHandler(dispatcher, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.HttpListenAddr,
		Handler: mux,
	}
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HttpListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 8. Block until shutdown
	<-rootCtx.Done()
	logger.Info("shutting down dispatcher")

	// Day ends: release every on-duty stream so GracefulStop can finish.
	dispatcher.CloseDay(context.Background())
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		logger.Warn("orders still in flight, forcing gRPC stop")
		grpcServer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	logger.Info("dispatcher shut down")
}

func setupGracefulShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v. Initiating graceful shutdown...", sig)
		cancel()
	}()
}
