package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/supavault/internal/pkg/stacktrace"
)

func callHandlerWithRecover(ctx context.Context, driver string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in message handler", "driver", driver, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in message handler", "driver", driver, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return fn()
}

// dispatch runs the handler and settles the message when auto-ack is on.
// Handler errors are logged; only a failed ack or nack is returned.
func dispatch(ctx context.Context, driver string, d *delivery, handler Handler, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, driver, func() error {
		return handler(ctx, d)
	})
	if herr != nil {
		slog.WarnContext(ctx, "message handler failed", "driver", driver, "topic", d.topic, "id", d.id, "error", herr)
	}

	if d.hasResponded() || !autoAck {
		return nil
	}
	if herr == nil {
		return d.Ack(ctx)
	}
	return d.Nack(ctx)
}
