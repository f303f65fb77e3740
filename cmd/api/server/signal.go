package server

import (
	"context"
	"os/signal"
	"syscall"
)

// WithSignal returns a context that is canceled on SIGINT or SIGTERM,
// driving the graceful shutdown path.
func WithSignal(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
