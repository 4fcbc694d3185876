package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/campusguard/internal/notification/usecase"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/pkg/messaging"
	"github.com/shandysiswandi/campusguard/internal/pkg/uid"
	"github.com/shandysiswandi/campusguard/internal/shared/event"
)

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(event.HeaderCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// SecurityEventNotification acks malformed or invalid events so they are
// not redelivered forever; only infrastructure failures are nacked.
func (h *MQHandler) SecurityEventNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "SecurityEventNotification")
	defer span.End()

	body := msg.Body()

	var payload event.SecurityEventMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of security event", "msg_body", string(body), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: security event notification", "event_id", payload.ID,
		"event_type", payload.Type, "account_id", payload.AccountID)

	err := h.uc.ConsumeSecurityEvent(ctx, usecase.ConsumeSecurityEventInput{
		EventID:     payload.ID,
		Type:        payload.Type,
		AccountID:   payload.AccountID,
		Email:       payload.Email,
		FullName:    payload.FullName,
		OccurredAt:  payload.OccurredAt,
		LockedUntil: payload.LockedUntil,
	})
	if ge, ok := goerror.As(err); ok && ge.Type() == goerror.TypeValidation {
		slog.WarnContext(ctx, "dropping invalid security event", "event_id", payload.ID, "error", err)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume security event", "event_id", payload.ID, "error", err)
		return err
	}

	return nil
}
