package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/supavault/internal/pkg/config"
	"github.com/shandysiswandi/supavault/internal/pkg/goroutine"
	"github.com/shandysiswandi/supavault/internal/pkg/instrument"
	"github.com/shandysiswandi/supavault/internal/pkg/messaging"
	"github.com/shandysiswandi/supavault/internal/pkg/uid"
	"github.com/shandysiswandi/supavault/internal/shared/event"
)

const defaultConsumerConcurrency = 10

// RegisterMQConsumer starts the enabled consumers under routine. Consumers
// listed in modules.notification.consumer_names run; an empty list runs all.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	consumer messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	handler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enabled := cfg.GetArray("modules.notification.consumer_names")
	concurrency := cfg.GetInt("modules.notification.consumer_concurrency")
	if concurrency <= 0 {
		concurrency = defaultConsumerConcurrency
	}

	consumers := []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.UserRegisteredConsumerNotification,
			topic:   event.UserRegisteredTopic,
			handler: handler.UserRegistered,
		},
	}

	for _, c := range consumers {
		if len(enabled) > 0 && !slices.Contains(enabled, c.name) {
			slog.InfoContext(ctx, "consumer disabled by config", "consumer", c.name, "topic", c.topic)
			continue
		}

		routine.Go(ctx, "consumer:"+c.name+":"+c.topic, func(ctx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.name, "topic", c.topic)
			return consumer.Consume(ctx,
				c.topic,
				c.handler,
				messaging.WithSubscriberName(c.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency),
			)
		})
	}
}
