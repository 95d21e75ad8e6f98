package broker

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"

	"go.uber.org/zap"
)

// EventHandler receives a decoded envelope and its typed variant.
type EventHandler func(ctx context.Context, env events.Envelope, ev events.Event) error

// Events adapts h to a delivery Handler. Unknown event types are logged and
// acked. Any other body that does not decode, newer schema versions included,
// is poison.
func Events(logger *zap.Logger, h EventHandler) Handler {
	return func(ctx context.Context, d Delivery) error {
		env, ev, err := events.Decode(d.Body)
		if err != nil {
			if errors.Is(err, events.ErrUnknownEventType) {
				logger.Info("ignoring unknown event type",
					zap.String("queue", d.Queue),
					zap.String("type", string(env.Type)),
					zap.String("event_id", env.EventID.String()),
				)
				return nil
			}
			return fmt.Errorf("%w: %v", ErrPoison, err)
		}
		logger.Debug("event received",
			zap.String("queue", d.Queue),
			zap.String("type", string(env.Type)),
			zap.String("event_id", env.EventID.String()),
			zap.Bool("redelivered", d.Redelivered),
		)
		return h(ctx, env, ev)
	}
}

// MessageFor builds the broker message carrying env.
func MessageFor(env events.Envelope, exchange string, aggregateID int64) (Message, error) {
	body, err := env.Encode()
	if err != nil {
		return Message{}, err
	}
	return Message{
		Exchange:   exchange,
		RoutingKey: string(env.Type),
		MessageID:  env.EventID.String(),
		Key:        strconv.FormatInt(aggregateID, 10),
		Body:       body,
	}, nil
}

// PublishEvent wraps and publishes e immediately, bypassing any outbox.
func PublishEvent(ctx context.Context, p Publisher, source string, e events.Event) (events.Envelope, error) {
	env, err := events.New(source, e)
	if err != nil {
		return events.Envelope{}, err
	}
	msg, err := MessageFor(env, e.Exchange(), e.AggregateID())
	if err != nil {
		return events.Envelope{}, err
	}
	return env, p.Publish(ctx, msg)
}
