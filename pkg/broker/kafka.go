package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	headerRoutingKey = "routing_key"
	headerMessageID  = "message_id"
)

// Kafka maps each exchange to a topic and each queue to a consumer group.
// Routing keys travel in a header and bindings are matched client side.
// Kafka has no per-message nack, so a failing handler is retried in place
// before the offset is committed.
type Kafka struct {
	brokers []string
	writer  *kafka.Writer
	logger  *zap.Logger
	retry   time.Duration
}

func NewKafka(brokers []string, logger *zap.Logger) *Kafka {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	logger.Info("kafka writer initialized", zap.Strings("brokers", brokers))
	return &Kafka{brokers: brokers, writer: w, logger: logger, retry: time.Second}
}

func (k *Kafka) Publish(ctx context.Context, msg Message) error {
	err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic: msg.Exchange,
		Key:   []byte(msg.Key),
		Value: msg.Body,
		Headers: []kafka.Header{
			{Key: headerRoutingKey, Value: []byte(msg.RoutingKey)},
			{Key: headerMessageID, Value: []byte(msg.MessageID)},
		},
	})
	recordPublish(msg.Exchange, err)
	if err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", msg.Exchange, err)
	}
	return nil
}

// Declare is a no-op: topics are created on first write and groups on first join.
func (k *Kafka) Declare(_ context.Context, sub Subscription) error {
	return sub.Validate()
}

func (k *Kafka) Consume(ctx context.Context, sub Subscription, h Handler) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     k.brokers,
		GroupID:     sub.Queue,
		GroupTopics: exchangesOf(sub),
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer r.Close()

	log := k.logger.With(zap.String("queue", sub.Queue))
	log.Info("consumer started", zap.Strings("topics", exchangesOf(sub)))

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("consumer stopping")
				return nil
			}
			return fmt.Errorf("fetch failed: %w", err)
		}

		if d, ok := deliveryFor(sub, m); ok {
			if err := k.handle(ctx, log, d, h); err != nil {
				// only cancellation ends the retry loop; leave the offset uncommitted
				return nil
			}
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit failed: %w", err)
		}
	}
}

// deliveryFor converts m for sub, reporting false when no binding of sub
// matches its topic and routing key.
func deliveryFor(sub Subscription, m kafka.Message) (Delivery, bool) {
	d := Delivery{
		Message: Message{
			Exchange:   m.Topic,
			RoutingKey: header(m, headerRoutingKey),
			MessageID:  header(m, headerMessageID),
			Key:        string(m.Key),
			Body:       m.Value,
		},
		Queue: sub.Queue,
	}
	return d, sub.matches(d.Exchange, d.RoutingKey)
}

func (k *Kafka) handle(ctx context.Context, log *zap.Logger, d Delivery, h Handler) error {
	for {
		err := h(ctx, d)
		result := outcome(err)
		deliveriesTotal.WithLabelValues(d.Queue, result).Inc()
		switch result {
		case outcomeAcked:
			return nil
		case outcomeDropped:
			log.Error("dropping poison message",
				zap.String("message_id", d.MessageID),
				zap.String("routing_key", d.RoutingKey),
				zap.Error(err),
			)
			return nil
		}
		log.Warn("handler failed, retrying",
			zap.String("message_id", d.MessageID),
			zap.String("routing_key", d.RoutingKey),
			zap.Error(err),
		)
		d.Redelivered = true
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(k.retry):
		}
	}
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (k *Kafka) Close() error {
	if err := k.writer.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
