// internal/worker/station.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	grpc_api "kitchen-dispatch/internal/api/grpc"
	"kitchen-dispatch/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Cook turns one order payload into its result.
type Cook func(ctx context.Context, order domain.Message) (domain.Message, error)

// Station is one staff member's connection to the dispatcher.
type Station struct {
	id         domain.StaffID
	speciality domain.CapabilitySet
	cook       Cook
	conn       grpc.ClientConnInterface
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewStation creates a station for staff id cooking the given specialities.
func NewStation(conn grpc.ClientConnInterface, id domain.StaffID, speciality domain.CapabilitySet, cook Cook, logger *slog.Logger) *Station {
	return &Station{
		id:         id,
		speciality: speciality,
		cook:       cook,
		conn:       conn,
		logger:     logger.With("component", "station", "staff_id", id),
		tracer:     otel.Tracer("kitchen-dispatch-staff"),
	}
}

// Run goes on duty and serves orders until the dispatcher releases the
// station or ctx is cancelled. A release returns nil.
func (s *Station) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := grpc_api.Open(ctx, s.conn, domain.OnDuty{ID: s.id, Speciality: s.speciality})
	if err != nil {
		return fmt.Errorf("failed to go on duty: %w", err)
	}
	s.logger.Info("on duty", "speciality", s.speciality.Strings())

	for {
		order, err := ch.Receive(ctx)
		if errors.Is(err, io.EOF) {
			s.logger.Info("released by dispatcher")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to receive order: %w", err)
		}

		result, err := s.serve(ctx, order)
		if err != nil {
			return err
		}
		if err := ch.Send(ctx, result); err != nil {
			return fmt.Errorf("failed to send result: %w", err)
		}
	}
}

func (s *Station) serve(ctx context.Context, order domain.Message) (domain.Message, error) {
	ctx, span := s.tracer.Start(ctx, "station.Cook", trace.WithAttributes(
		attribute.String("staff.id", string(s.id)),
		attribute.Int("order.size", len(order)),
	))
	defer span.End()

	result, err := s.cook(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cook failed")
		s.logger.Error("cook failed", "error", err)
		return nil, fmt.Errorf("cook failed: %w", err)
	}
	s.logger.Debug("order cooked", "size", len(order))
	return result, nil
}

// OffDuty asks the dispatcher to take this station off duty.
func (s *Station) OffDuty(ctx context.Context) error {
	if err := grpc_api.Notify(ctx, s.conn, domain.OffDuty{ID: s.id}); err != nil {
		return fmt.Errorf("failed to go off duty: %w", err)
	}
	s.logger.Info("off duty")
	return nil
}
