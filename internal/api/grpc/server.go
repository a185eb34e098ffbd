// internal/api/grpc/server.go
package grpc

import (
	"log/slog"

	"kitchen-dispatch/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server serves kitchen.v1.Dispatch/Connect on top of a domain.Dispatcher.
type Server struct {
	dispatcher domain.Dispatcher
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewServer creates a new gRPC front end for dispatcher.
func NewServer(dispatcher domain.Dispatcher, logger *slog.Logger) *Server {
	return &Server{
		dispatcher: dispatcher,
		logger:     logger.With("component", "grpc-server"),
		tracer:     otel.Tracer("kitchen-dispatch-grpc"),
	}
}

// Register attaches srv to a grpc.Server.
func Register(s grpc.ServiceRegistrar, srv *Server) {
	s.RegisterService(&serviceDesc, srv)
}

// Connect reads the scope frame, hands the event to the dispatcher and, for
// staff coming on duty, keeps the stream open until they are released.
func (s *Server) Connect(stream grpc.ServerStream) error {
	ctx := stream.Context()

	scope := new(structpb.Struct)
	if err := stream.RecvMsg(scope); err != nil {
		return err
	}

	ev, err := domain.ParseEvent(scope.AsMap())
	if err != nil {
		s.logger.Warn("rejected event", "error", err)
		return statusFromError(err)
	}

	ctx, span := s.tracer.Start(ctx, "grpc.Connect", trace.WithAttributes(
		attribute.String("event.type", string(ev.Type())),
	))
	defer span.End()

	ch := newStreamChannel(stream)
	if err := s.dispatcher.Handle(ctx, ev, ch); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "event handling failed")
		return statusFromError(err)
	}

	if _, ok := ev.(domain.OnDuty); ok {
		select {
		case <-ch.Released():
		case <-ctx.Done():
			// TODO: take staff off duty when their stream drops instead of
			// leaving them selectable until a staff.offduty arrives.
			return status.FromContextError(ctx.Err()).Err()
		}
	}
	return nil
}
