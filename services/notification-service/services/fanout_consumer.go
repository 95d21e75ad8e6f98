package services

import (
	"context"

	"github.com/yashrajoria/freelance-marketplace/pkg/broker"
	"github.com/yashrajoria/freelance-marketplace/pkg/events"

	"go.uber.org/zap"
)

const FanoutQueue = "notification-service.fanout"

func FanoutSubscription() broker.Subscription {
	return broker.Subscription{
		Queue: FanoutQueue,
		Bindings: []broker.Binding{
			{Exchange: events.ExchangeOrders, Keys: []string{"order.*"}},
			{Exchange: events.ExchangePayments, Keys: []string{"payment.*"}},
			{Exchange: events.ExchangeReviews, Keys: []string{string(events.ReviewCreatedType)}},
		},
	}
}

// FanoutConsumer turns domain events into inbox entries.
type FanoutConsumer struct {
	notifications NotificationService
	logger        *zap.Logger
}

func NewFanoutConsumer(notifications NotificationService, logger *zap.Logger) *FanoutConsumer {
	return &FanoutConsumer{notifications: notifications, logger: logger}
}

func (fc *FanoutConsumer) Start(ctx context.Context, conn broker.Connection) {
	sub := FanoutSubscription()
	fc.logger.Info("Fan-out consumer listening", zap.String("queue", sub.Queue))
	broker.Run(ctx, conn, sub, broker.Events(fc.logger, fc.Handle), fc.logger)
}

// Handle writes every entry the event produces. A failed write requeues the
// event; entries already written are skipped when it comes back.
func (fc *FanoutConsumer) Handle(ctx context.Context, env events.Envelope, ev events.Event) error {
	notices := Notices(ev)
	if len(notices) == 0 {
		fc.logger.Debug("No notifications for event", zap.String("type", string(env.Type)))
		return nil
	}

	eventID := env.EventID.String()
	written := 0
	for _, n := range notices {
		inserted, err := fc.notifications.Deliver(ctx, eventID, n)
		if err != nil {
			fc.logger.Error("Failed to write inbox entry",
				zap.String("event_id", eventID),
				zap.String("type", string(env.Type)),
				zap.String("recipient_type", string(n.RecipientType)),
				zap.Int64("recipient_id", n.RecipientID),
				zap.Error(err),
			)
			return err
		}
		if inserted {
			written++
		}
	}
	fc.logger.Info("Notifications written",
		zap.String("event_id", eventID),
		zap.String("type", string(env.Type)),
		zap.Int("written", written),
		zap.Int("skipped", len(notices)-written),
	)
	return nil
}
