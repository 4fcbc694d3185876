package gateway

import (
	"context"
	"log/slog"
)

// Log writes the message to the application log instead of delivering it.
// Development only.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (Log) Send(ctx context.Context, destination, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "gateway log driver message", "destination", destination, "body", message)
	return nil
}
