// internal/scheduler/shift_scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"kitchen-dispatch/internal/domain"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ShiftScheduler opens and closes the working day on cron schedules.
type ShiftScheduler struct {
	cron   *cron.Cron
	shift  domain.Shift
	logger *slog.Logger
	tracer trace.Tracer
}

// NewShiftScheduler creates a scheduler driving shift. Empty schedules are
// skipped.
func NewShiftScheduler(shift domain.Shift, parser cron.Parser, dayStart, dayEnd string, logger *slog.Logger) (*ShiftScheduler, error) {
	s := &ShiftScheduler{
		cron:   cron.New(cron.WithParser(parser)),
		shift:  shift,
		logger: logger.With("component", "shift-scheduler"),
		tracer: otel.Tracer("kitchen-dispatch-scheduler"),
	}

	if err := s.add("day_start", dayStart, shift.OpenDay); err != nil {
		return nil, err
	}
	if err := s.add("day_end", dayEnd, shift.CloseDay); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ShiftScheduler) add(name, spec string, fn func(context.Context)) error {
	if spec == "" {
		return nil
	}
	job := &boundaryJob{name: name, fn: fn, logger: s.logger.With("boundary", name), tracer: s.tracer}
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("invalid %s schedule %q: %w", name, spec, err)
	}
	s.logger.Info("scheduled shift boundary", "boundary", name, "schedule", spec)
	return nil
}

// Start runs the schedules until ctx is done.
func (s *ShiftScheduler) Start(ctx context.Context) error {
	s.logger.Info("shift scheduler started")
	s.cron.Start()
	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("shift scheduler stopped")
	return ctx.Err()
}

// boundaryJob adapts a day boundary to cron.Job.
type boundaryJob struct {
	name   string
	fn     func(context.Context)
	logger *slog.Logger
	tracer trace.Tracer
}

func (j *boundaryJob) Run() {
	ctx, span := j.tracer.Start(context.Background(), "scheduler.ShiftBoundary",
		trace.WithAttributes(attribute.String("shift.boundary", j.name)))
	defer span.End()

	j.logger.Info("shift boundary reached")
	j.fn(ctx)
}
