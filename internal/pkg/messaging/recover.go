package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/campusguard/internal/pkg/stacktrace"
)

func callHandlerWithRecover(ctx context.Context, driver string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return fn()
}

// deliver runs the handler and applies auto-ack when the handler did not
// respond itself.
func deliver(ctx context.Context, driver string, msg responder, handler Handler, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, driver, func() error {
		return handler(ctx, msg)
	})
	if herr != nil {
		slog.WarnContext(ctx, "messaging handler failed", "driver", driver, "destination", msg.Destination(), "error", herr)
	}
	if !autoAck || msg.responded() {
		return nil
	}
	if herr == nil {
		return msg.Ack(ctx)
	}
	return msg.Nack(ctx)
}

type responder interface {
	Message
	responded() bool
}
