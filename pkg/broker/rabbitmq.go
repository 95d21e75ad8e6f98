package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const dialAttempts = 10

// RabbitMQ is a Connection over a single AMQP connection. Publishing uses one
// confirm-mode channel; every consumer gets a channel of its own.
type RabbitMQ struct {
	url      string
	prefetch int
	logger   *zap.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	pubCh    *amqp.Channel
	declared map[string]bool
	closed   bool
}

// DialRabbitMQ connects with retries, since the broker often starts after the
// services in local compose setups.
func DialRabbitMQ(ctx context.Context, url string, prefetch int, logger *zap.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{url: url, prefetch: prefetch, logger: logger, declared: make(map[string]bool)}
	var err error
	for i := 0; i < dialAttempts; i++ {
		if err = r.connect(); err == nil {
			logger.Info("connected to RabbitMQ")
			return r, nil
		}
		logger.Warn("failed to connect to RabbitMQ, retrying",
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	r.conn, r.pubCh = conn, ch
	r.declared = make(map[string]bool)
	return nil
}

// ensure redials when the connection or the publish channel were lost.
// Callers hold r.mu.
func (r *RabbitMQ) ensure() error {
	if r.closed {
		return ErrClosed
	}
	if r.conn != nil && !r.conn.IsClosed() && r.pubCh != nil && !r.pubCh.IsClosed() {
		return nil
	}
	if r.conn != nil && !r.conn.IsClosed() {
		_ = r.conn.Close()
	}
	r.logger.Warn("RabbitMQ connection lost, reconnecting")
	return r.connect()
}

func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,    // name
		"topic", // kind
		true,    // durable
		false,   // auto-delete
		false,   // internal
		false,   // no-wait
		nil,
	)
}

func (r *RabbitMQ) Publish(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.publish(ctx, msg)
	recordPublish(msg.Exchange, err)
	return err
}

func (r *RabbitMQ) publish(ctx context.Context, msg Message) error {
	if err := r.ensure(); err != nil {
		return err
	}
	if !r.declared[msg.Exchange] {
		if err := declareExchange(r.pubCh, msg.Exchange); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", msg.Exchange, err)
		}
		r.declared[msg.Exchange] = true
	}

	confirm, err := r.pubCh.PublishWithDeferredConfirmWithContext(ctx,
		msg.Exchange,
		msg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			MessageId:    msg.MessageID,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         msg.Body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed waiting for publish confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("broker nacked message %s", msg.MessageID)
	}
	return nil
}

func (r *RabbitMQ) channel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensure(); err != nil {
		return nil, err
	}
	return r.conn.Channel()
}

func (r *RabbitMQ) Declare(ctx context.Context, sub Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	ch, err := r.channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return declareTopology(ch, sub)
}

func declareTopology(ch *amqp.Channel, sub Subscription) error {
	for _, ex := range exchangesOf(sub) {
		if err := declareExchange(ch, ex); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", ex, err)
		}
	}
	if _, err := ch.QueueDeclare(
		sub.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", sub.Queue, err)
	}
	for _, b := range sub.Bindings {
		for _, key := range b.Keys {
			if err := ch.QueueBind(sub.Queue, key, b.Exchange, false, nil); err != nil {
				return fmt.Errorf("failed to bind %s to %s/%s: %w", sub.Queue, b.Exchange, key, err)
			}
		}
	}
	return nil
}

func (r *RabbitMQ) Consume(ctx context.Context, sub Subscription, h Handler) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	ch, err := r.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := declareTopology(ch, sub); err != nil {
		return err
	}
	if err := ch.Qos(r.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	msgs, err := ch.Consume(
		sub.Queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	log := r.logger.With(zap.String("queue", sub.Queue))
	log.Info("consumer started")
	for {
		select {
		case <-ctx.Done():
			log.Info("consumer stopping")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			r.settle(ctx, log, sub.Queue, d, h)
		}
	}
}

func (r *RabbitMQ) settle(ctx context.Context, log *zap.Logger, queue string, d amqp.Delivery, h Handler) {
	err := h(ctx, Delivery{
		Message: Message{
			Exchange:   d.Exchange,
			RoutingKey: d.RoutingKey,
			MessageID:  d.MessageId,
			Body:       d.Body,
		},
		Queue:       queue,
		Redelivered: d.Redelivered,
	})
	result := outcome(err)
	deliveriesTotal.WithLabelValues(queue, result).Inc()

	fields := []zap.Field{
		zap.String("message_id", d.MessageId),
		zap.String("routing_key", d.RoutingKey),
	}
	switch result {
	case outcomeRequeued:
		log.Warn("handler failed, requeueing", append(fields, zap.Error(err))...)
		if nerr := d.Nack(false, true); nerr != nil {
			log.Error("failed to nack delivery", append(fields, zap.Error(nerr))...)
		}
	case outcomeDropped:
		log.Error("dropping poison message", append(fields, zap.Error(err))...)
		fallthrough
	default:
		if aerr := d.Ack(false); aerr != nil {
			log.Error("failed to ack delivery", append(fields, zap.Error(aerr))...)
		}
	}
}

// Close closes the publish channel before the connection.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.pubCh != nil {
		_ = r.pubCh.Close()
	}
	if r.conn != nil && !r.conn.IsClosed() {
		return r.conn.Close()
	}
	return nil
}
