// internal/domain/dispatcher.go
package domain

import "context"

// Dispatcher handles one incoming event on the channel it arrived on.
type Dispatcher interface {
	Handle(ctx context.Context, ev Event, ch Channel) error
}

// Shift opens and closes the working day.
type Shift interface {
	OpenDay(ctx context.Context)
	CloseDay(ctx context.Context)
}
