package channel

import (
	"context"
	"testing"
	"time"

	"kitchen-dispatch/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestPipeDeliversBothWays(t *testing.T) {
	a, b := NewPipe()
	ctx := context.Background()

	go func() {
		msg, err := b.Receive(ctx)
		if err == nil {
			_ = b.Send(ctx, append(domain.Message("re:"), msg...))
		}
	}()

	require.NoError(t, a.Send(ctx, domain.Message("ping")))
	got, err := a.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Message("re:ping"), got)
}

func TestPipeCloseUnblocksPeer(t *testing.T) {
	a, b := NewPipe()

	errCh := make(chan error, 1)
	go func() {
		_, err := b.Receive(context.Background())
		errCh <- err
	}()

	a.Close()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, domain.ErrChannelClosed)
	case <-time.After(time.Second):
		t.Fatal("receive did not unblock after peer closed")
	}

	require.ErrorIs(t, a.Send(context.Background(), domain.Message("x")), domain.ErrChannelClosed)
}

func TestPipeHonoursContext(t *testing.T) {
	a, _ := NewPipe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Receive(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPipeReleaseIsIdempotent(t *testing.T) {
	a, _ := NewPipe()
	a.Release()
	a.Release()

	select {
	case <-a.Released():
	default:
		t.Fatal("released channel not closed")
	}
}
