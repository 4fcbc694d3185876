package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/pkg/messaging"
	"github.com/shandysiswandi/campusguard/internal/shared/event"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishSecurityEvent keys the message by account so a partitioned broker
// keeps the events of one account in order.
func (m *Messaging) PublishSecurityEvent(ctx context.Context, ev entity.SecurityEvent) error {
	ctx, span := m.ins.Tracer("twofactor.outbound.mq").Start(ctx, "PublishSecurityEvent")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", string(ev.Type)))

	body, err := json.Marshal(event.SecurityEventMessage{
		ID:          ev.ID,
		Type:        string(ev.Type),
		AccountID:   ev.AccountID,
		Email:       ev.Email,
		FullName:    ev.FullName,
		ActorID:     ev.ActorID,
		OccurredAt:  ev.OccurredAt,
		LockedUntil: ev.LockedUntil,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.SecurityEventDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(ev.AccountID, 10)),
		Headers: map[string]string{event.HeaderCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
