// internal/api/grpc/client.go
package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"kitchen-dispatch/internal/domain"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Dial opens a client connection to a dispatcher.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to dispatcher at %s: %w", addr, err)
	}
	return conn, nil
}

// ClientChannel is the caller's end of a Connect stream.
type ClientChannel struct {
	*StreamChannel
	stream grpc.ClientStream
}

// CloseSend tells the dispatcher no more frames will follow.
func (c *ClientChannel) CloseSend() error {
	return c.stream.CloseSend()
}

// Open starts a Connect stream for ev. The returned channel carries the
// frames that follow the scope.
func Open(ctx context.Context, conn grpc.ClientConnInterface, ev domain.Event) (*ClientChannel, error) {
	scope, err := structpb.NewStruct(domain.Scope(ev))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s scope: %w", ev.Type(), err)
	}

	stream, err := conn.NewStream(ctx, &connectStream, connectMethod)
	if err != nil {
		return nil, errorFromStatus(err)
	}
	if err := stream.SendMsg(scope); err != nil {
		return nil, errorFromStatus(err)
	}
	return &ClientChannel{StreamChannel: newStreamChannel(stream), stream: stream}, nil
}

// Notify sends an event that carries no frames, such as staff.offduty, and
// waits for the dispatcher's verdict.
func Notify(ctx context.Context, conn grpc.ClientConnInterface, ev domain.Event) error {
	ch, err := Open(ctx, conn, ev)
	if err != nil {
		return err
	}
	if err := ch.CloseSend(); err != nil {
		return errorFromStatus(err)
	}
	err = ch.stream.RecvMsg(new(structpb.Struct))
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("unexpected frame in reply to %s", ev.Type())
	}
	return errorFromStatus(err)
}

// PlaceOrder sends one order and waits for its result.
func PlaceOrder(ctx context.Context, conn grpc.ClientConnInterface, speciality domain.Capability, payload domain.Message) (domain.Message, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := Open(ctx, conn, domain.Order{Speciality: speciality})
	if err != nil {
		return nil, err
	}
	if err := ch.Send(ctx, payload); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return ch.Receive(ctx)
}
