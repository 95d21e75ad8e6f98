package services

import (
	"context"

	"github.com/yashrajoria/freelance-marketplace/pkg/broker"
	"github.com/yashrajoria/freelance-marketplace/pkg/events"

	"go.uber.org/zap"
)

const PaymentSettlementQueue = "order-service.payment-settlement"

// PaymentSettlementSubscription binds the settlement queue to payment.completed.
func PaymentSettlementSubscription() broker.Subscription {
	return broker.Subscription{
		Queue: PaymentSettlementQueue,
		Bindings: []broker.Binding{
			{Exchange: events.ExchangePayments, Keys: []string{string(events.PaymentCompletedType)}},
		},
	}
}

// PaymentConsumer marks orders paid when their payment completes.
type PaymentConsumer struct {
	orders OrderService
	logger *zap.Logger
}

func NewPaymentConsumer(orders OrderService, logger *zap.Logger) *PaymentConsumer {
	return &PaymentConsumer{orders: orders, logger: logger}
}

// Start consumes until ctx is cancelled.
func (pc *PaymentConsumer) Start(ctx context.Context, conn broker.Connection) {
	sub := PaymentSettlementSubscription()
	pc.logger.Info("Payment consumer listening", zap.String("queue", sub.Queue))
	broker.Run(ctx, conn, sub, broker.Events(pc.logger, pc.Handle), pc.logger)
}

// Handle is idempotent: a second payment.completed for the same order is a no-op.
func (pc *PaymentConsumer) Handle(ctx context.Context, env events.Envelope, ev events.Event) error {
	switch e := ev.(type) {
	case events.PaymentCompleted:
		changed, err := pc.orders.MarkPaid(ctx, e.OrderID)
		if err != nil {
			pc.logger.Error("Failed to settle order payment",
				zap.String("event_id", env.EventID.String()),
				zap.Int64("order_id", e.OrderID),
				zap.Error(err),
			)
			return err
		}
		if !changed {
			pc.logger.Info("Order already paid or missing, skipping",
				zap.String("event_id", env.EventID.String()),
				zap.Int64("order_id", e.OrderID),
			)
			return nil
		}
		pc.logger.Info("Order marked paid",
			zap.String("event_id", env.EventID.String()),
			zap.Int64("order_id", e.OrderID),
			zap.Int64("payment_id", e.PaymentID),
		)
	default:
		pc.logger.Debug("Ignoring event", zap.String("type", string(env.Type)))
	}
	return nil
}
