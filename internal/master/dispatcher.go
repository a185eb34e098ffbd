// internal/master/dispatcher.go
package master

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kitchen-dispatch/internal/domain"
	"kitchen-dispatch/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Dispatcher routes orders to on-duty staff and keeps the registry in step
// with lifecycle events.
type Dispatcher struct {
	registry *Registry
	roster   domain.RosterObserver
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewDispatcher creates a dispatcher over registry. A nil roster is replaced
// by domain.NopRoster.
func NewDispatcher(registry *Registry, roster domain.RosterObserver, logger *slog.Logger) *Dispatcher {
	if roster == nil {
		roster = domain.NopRoster{}
	}
	return &Dispatcher{
		registry: registry,
		roster:   roster,
		logger:   logger.With("component", "dispatcher"),
		tracer:   otel.Tracer("kitchen-dispatch-master"),
	}
}

// workOrder is the routing state of one order while it is in flight.
type workOrder struct {
	id         string
	speciality domain.Capability
	client     domain.Channel
	staff      *Worker
}

// Handle processes a single event that arrived on ch.
func (d *Dispatcher) Handle(ctx context.Context, ev domain.Event, ch domain.Channel) error {
	var err error
	switch e := ev.(type) {
	case domain.OnDuty:
		d.onDuty(ctx, e, ch)
	case domain.OffDuty:
		err = d.offDuty(ctx, e)
	case domain.Order:
		err = d.routeOrder(ctx, e, ch)
	default:
		err = fmt.Errorf("%w: %T", domain.ErrUnknownEvent, ev)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	if ev != nil {
		metrics.EventsTotal.WithLabelValues(string(ev.Type()), status).Inc()
	}
	return err
}

func (d *Dispatcher) onDuty(ctx context.Context, e domain.OnDuty, ch domain.Channel) {
	info := d.registry.Register(e.ID, e.Speciality, ch)
	metrics.StaffOnDuty.Set(float64(d.registry.Len()))
	d.logger.Info("staff on duty", "id", e.ID, "speciality", info.Speciality)

	if err := d.roster.OnDuty(ctx, info); err != nil {
		d.logger.Warn("failed to announce staff on duty", "id", e.ID, "error", err)
	}
}

func (d *Dispatcher) offDuty(ctx context.Context, e domain.OffDuty) error {
	if err := d.registry.Deregister(e.ID); err != nil {
		d.logger.Warn("off duty for unknown staff", "id", e.ID)
		return fmt.Errorf("staff %s: %w", e.ID, err)
	}
	metrics.StaffOnDuty.Set(float64(d.registry.Len()))
	d.logger.Info("staff off duty", "id", e.ID)

	if err := d.roster.OffDuty(ctx, e.ID); err != nil {
		d.logger.Warn("failed to withdraw staff from roster", "id", e.ID, "error", err)
	}
	return nil
}

// routeOrder relays one payload from the client to the selected staff member
// and one result back. The selection charge is kept even if the relay fails.
func (d *Dispatcher) routeOrder(ctx context.Context, e domain.Order, client domain.Channel) (err error) {
	order := &workOrder{id: uuid.NewString(), speciality: e.Speciality, client: client}

	ctx, span := d.tracer.Start(ctx, "dispatcher.RouteOrder", trace.WithAttributes(
		attribute.String("order.id", order.id),
		attribute.String("order.speciality", string(order.speciality)),
	))
	defer span.End()

	logger := d.logger.With("order_id", order.id, "speciality", order.speciality)
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, "order routing failed")
			logger.Error("order routing failed", "error", err)
		} else {
			metrics.OrderDuration.WithLabelValues(string(order.speciality)).Observe(time.Since(start).Seconds())
			span.SetStatus(codes.Ok, "order delivered")
		}
		metrics.OrdersTotal.WithLabelValues(string(order.speciality), status).Inc()
	}()

	// 1. Select and charge a staff member.
	order.staff, err = d.registry.SelectLeastLoaded(order.speciality)
	if err != nil {
		return fmt.Errorf("order %s for %s: %w", order.id, order.speciality, err)
	}
	span.SetAttributes(attribute.String("staff.id", string(order.staff.ID)))
	logger = logger.With("staff_id", order.staff.ID)
	logger.Info("order assigned")

	// 2. Full order from the client.
	payload, err := order.client.Receive(ctx)
	if err != nil {
		return fmt.Errorf("order %s: receive from client: %w", order.id, err)
	}

	// 3+4. Hand it to the staff member and wait for the result.
	result, err := order.staff.exchange(ctx, payload)
	if err != nil {
		return fmt.Errorf("order %s: %w", order.id, err)
	}
	span.AddEvent("result_received")

	// 5. Return it to the client.
	if err := order.client.Send(ctx, result); err != nil {
		return fmt.Errorf("order %s: send to client: %w", order.id, err)
	}

	logger.Info("order delivered")
	return nil
}

// OpenDay starts a new working day with nobody on duty.
func (d *Dispatcher) OpenDay(ctx context.Context) {
	d.resetDay(ctx, "day opened")
}

// CloseDay ends the working day, taking everyone off duty.
func (d *Dispatcher) CloseDay(ctx context.Context) {
	d.resetDay(ctx, "day closed")
}

func (d *Dispatcher) resetDay(ctx context.Context, msg string) {
	removed := d.registry.Reset()
	metrics.StaffOnDuty.Set(0)
	for _, id := range removed {
		if err := d.roster.OffDuty(ctx, id); err != nil {
			d.logger.Warn("failed to withdraw staff from roster", "id", id, "error", err)
		}
	}
	d.logger.Info(msg, "released", len(removed))
}

// Roster returns every on-duty staff member in registry order.
func (d *Dispatcher) Roster() []domain.WorkerInfo {
	return d.registry.Snapshot()
}

// Staff returns one on-duty staff member.
func (d *Dispatcher) Staff(id domain.StaffID) (domain.WorkerInfo, bool) {
	return d.registry.Lookup(id)
}
