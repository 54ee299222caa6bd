package helpers

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext derives a context from the command context that is cancelled
// on SIGINT or SIGTERM. Cleanup code should detach with context.WithoutCancel.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}

	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
