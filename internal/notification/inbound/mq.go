package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/campusguard/internal/pkg/config"
	"github.com/shandysiswandi/campusguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/pkg/messaging"
	"github.com/shandysiswandi/campusguard/internal/pkg/uid"
	"github.com/shandysiswandi/campusguard/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.consumer_concurrency")
	if concurrency <= 0 {
		concurrency = 4
	}

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string // kafka consumer group, nats queue group
		handler messaging.Handler
	}{
		{
			name:    event.SecurityEventConsumerNotification,
			topic:   event.SecurityEventDestination,
			group:   event.SecurityEventConsumerNotification,
			handler: mqHandler.SecurityEventNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithGroup(consumer.group),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(concurrency),
				)
			})
		}
	}
}
