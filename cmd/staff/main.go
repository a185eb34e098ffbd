// cmd/staff/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpc_api "kitchen-dispatch/internal/api/grpc"
	"kitchen-dispatch/internal/config"
	"kitchen-dispatch/internal/domain"
	"kitchen-dispatch/internal/tracing"
	"kitchen-dispatch/internal/worker"

	"github.com/google/uuid"
)

func main() {
	// 1. Init logger, tracer, config
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	tracerShutdown, err := tracing.InitTracer("kitchen-dispatch-staff", os.Stderr)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Printf("failed to shutdown tracer: %v", err)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if len(cfg.StaffSpeciality) == 0 {
		log.Fatalf("staff_speciality must name at least one speciality")
	}

	staffID := cfg.StaffID
	if staffID == "" {
		staffID = uuid.New().String()
	}

	// 2. Root context and graceful shutdown
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to the dispatcher
	conn, err := grpc_api.Dial(cfg.DispatcherAddr)
	if err != nil {
		log.Fatalf("Failed to dial dispatcher: %v", err)
	}
	defer conn.Close()

	station := worker.NewStation(conn, domain.StaffID(staffID), domain.NewCapabilitySet(cfg.StaffSpeciality...), cook(staffID), logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v. Going off duty...", sig)
		offCtx, offCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer offCancel()
		if err := station.OffDuty(offCtx); err != nil {
			logger.Error("failed to go off duty", "error", err)
			cancel()
		}
	}()

	// 4. Serve orders until released
	if err := station.Run(rootCtx); err != nil && rootCtx.Err() == nil {
		log.Fatalf("Station stopped: %v", err)
	}
	log.Println("Staff member went home.")
}

// cook answers every order with a ticket naming who cooked it.
func cook(staffID string) worker.Cook {
	return func(_ context.Context, order domain.Message) (domain.Message, error) {
		ticket := make(domain.Message, 0, len(staffID)+len(order)+9)
		ticket = append(ticket, "cooked "...)
		ticket = append(ticket, order...)
		ticket = append(ticket, " by "...)
		ticket = append(ticket, staffID...)
		return ticket, nil
	}
}
