// internal/api/grpc/channel.go
package grpc

import (
	"context"
	"sync"

	"kitchen-dispatch/internal/domain"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

// msgStream is the part of grpc.ServerStream and grpc.ClientStream used for frames.
type msgStream interface {
	SendMsg(m any) error
	RecvMsg(m any) error
}

// StreamChannel adapts a Connect stream to domain.Channel.
type StreamChannel struct {
	stream   msgStream
	sendMu   sync.Mutex
	recvMu   sync.Mutex
	released chan struct{}
	once     sync.Once
}

func newStreamChannel(stream msgStream) *StreamChannel {
	return &StreamChannel{stream: stream, released: make(chan struct{})}
}

// Receive reads the next BytesValue frame.
func (c *StreamChannel) Receive(ctx context.Context) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	frame := new(wrapperspb.BytesValue)
	if err := c.stream.RecvMsg(frame); err != nil {
		return nil, errorFromStatus(err)
	}
	return domain.Message(frame.GetValue()), nil
}

// Send writes msg as one BytesValue frame.
func (c *StreamChannel) Send(ctx context.Context, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := c.stream.SendMsg(wrapperspb.Bytes(msg)); err != nil {
		return errorFromStatus(err)
	}
	return nil
}

// Release implements domain.Releaser.
func (c *StreamChannel) Release() {
	c.once.Do(func() { close(c.released) })
}

// Released is closed when the dispatcher no longer refers to this stream.
func (c *StreamChannel) Released() <-chan struct{} {
	return c.released
}
