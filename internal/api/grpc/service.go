// internal/api/grpc/service.go
package grpc

import (
	"errors"

	"kitchen-dispatch/internal/domain"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "kitchen.v1.Dispatch"

	connectMethod = "/" + ServiceName + "/Connect"
)

// connectHandler is the server side of the Connect stream. Every stream
// carries one event: the first frame is a google.protobuf.Struct scope and
// every later frame is a google.protobuf.BytesValue message.
type connectHandler interface {
	Connect(stream grpc.ServerStream) error
}

var connectStream = grpc.StreamDesc{
	StreamName:    "Connect",
	Handler:       connectStreamHandler,
	ServerStreams: true,
	ClientStreams: true,
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*connectHandler)(nil),
	Streams:     []grpc.StreamDesc{connectStream},
	Metadata:    "kitchen/v1/dispatch.proto",
}

func connectStreamHandler(srv any, stream grpc.ServerStream) error {
	return srv.(connectHandler).Connect(stream)
}

// statusFromError maps domain errors onto gRPC status codes.
func statusFromError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotRegistered):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrNoCapableWorker):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrInvalidEvent), errors.Is(err, domain.ErrUnknownEvent):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrChannelClosed):
		return status.Error(codes.Aborted, err.Error())
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Internal, err.Error())
}

// errorFromStatus is the inverse of statusFromError, so callers on the client
// side can match domain sentinels with errors.Is.
func errorFromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.NotFound:
		sentinel = domain.ErrNotRegistered
	case codes.FailedPrecondition:
		sentinel = domain.ErrNoCapableWorker
	case codes.InvalidArgument:
		sentinel = domain.ErrInvalidEvent
	case codes.Aborted:
		sentinel = domain.ErrChannelClosed
	default:
		return err
	}
	return &remoteError{sentinel: sentinel, status: err}
}

type remoteError struct {
	sentinel error
	status   error
}

func (e *remoteError) Error() string { return e.status.Error() }

func (e *remoteError) Unwrap() []error { return []error{e.sentinel, e.status} }
