// internal/domain/channel.go
package domain

import (
	"context"
	"errors"
)

// ErrChannelClosed is returned by channel operations after the peer has gone away.
var ErrChannelClosed = errors.New("channel closed")

// Message is one opaque frame exchanged over a Channel.
type Message []byte

// Channel is a bidirectional endpoint used for both clients and staff.
type Channel interface {
	// Receive blocks until the next message is available.
	Receive(ctx context.Context) (Message, error)
	// Send blocks until the peer has accepted msg.
	Send(ctx context.Context, msg Message) error
}

// Releaser is implemented by channels that want to know when the registry
// has stopped referring to them.
type Releaser interface {
	Release()
}
