// internal/channel/pipe.go
package channel

import (
	"context"
	"sync"

	"kitchen-dispatch/internal/domain"
)

// Endpoint is one side of an in-memory Pipe.
type Endpoint struct {
	in       <-chan domain.Message
	out      chan<- domain.Message
	closed   chan struct{}
	peer     *Endpoint
	once     sync.Once
	released chan struct{}
	relOnce  sync.Once
}

// NewPipe returns two connected endpoints; a message sent on one is
// received on the other. Sends are unbuffered and block until received.
func NewPipe() (*Endpoint, *Endpoint) {
	ab := make(chan domain.Message)
	ba := make(chan domain.Message)
	a := &Endpoint{in: ba, out: ab, closed: make(chan struct{}), released: make(chan struct{})}
	b := &Endpoint{in: ab, out: ba, closed: make(chan struct{}), released: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

// Receive implements domain.Channel.
func (e *Endpoint) Receive(ctx context.Context) (domain.Message, error) {
	select {
	case msg := <-e.in:
		return msg, nil
	case <-e.closed:
		return nil, domain.ErrChannelClosed
	case <-e.peer.closed:
		return nil, domain.ErrChannelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send implements domain.Channel.
func (e *Endpoint) Send(ctx context.Context, msg domain.Message) error {
	select {
	case e.out <- msg:
		return nil
	case <-e.closed:
		return domain.ErrChannelClosed
	case <-e.peer.closed:
		return domain.ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close unblocks both endpoints; later operations return domain.ErrChannelClosed.
func (e *Endpoint) Close() {
	e.once.Do(func() { close(e.closed) })
}

// Release implements domain.Releaser.
func (e *Endpoint) Release() {
	e.relOnce.Do(func() { close(e.released) })
}

// Released is closed once the registry has let go of this endpoint.
func (e *Endpoint) Released() <-chan struct{} {
	return e.released
}
