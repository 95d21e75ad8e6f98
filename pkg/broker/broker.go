// Package broker is the event bus used by every service: topic exchanges,
// routing keys and named durable queues shared by competing consumers.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Drivers accepted by Open.
const (
	DriverRabbitMQ = "rabbitmq"
	DriverKafka    = "kafka"
	DriverMemory   = "memory"
)

var (
	// ErrPoison marks a delivery that can never be processed. The driver acks
	// and drops it instead of requeueing.
	ErrPoison = errors.New("poison message")

	ErrClosed = errors.New("broker connection closed")
)

// Message is a single publish.
type Message struct {
	Exchange   string
	RoutingKey string
	MessageID  string
	// Key selects the partition on drivers that have them.
	Key  string
	Body []byte
}

// Delivery is a message handed to a consumer.
type Delivery struct {
	Message
	Queue       string
	Redelivered bool
}

// Handler processes one delivery. Returning nil acks it; an error requeues it
// unless it wraps ErrPoison.
type Handler func(ctx context.Context, d Delivery) error

type Binding struct {
	Exchange string
	Keys     []string
}

// Subscription names a durable queue and the keys bound to it. Every instance
// of a service uses the same queue name, so instances compete for deliveries.
type Subscription struct {
	Queue    string
	Bindings []Binding
}

func (s Subscription) Validate() error {
	if s.Queue == "" {
		return errors.New("subscription queue name is required")
	}
	if len(s.Bindings) == 0 {
		return fmt.Errorf("subscription %s has no bindings", s.Queue)
	}
	for _, b := range s.Bindings {
		if b.Exchange == "" || len(b.Keys) == 0 {
			return fmt.Errorf("subscription %s has an incomplete binding", s.Queue)
		}
	}
	return nil
}

// matches reports whether a message from exchange with key is routed to s.
func (s Subscription) matches(exchange, key string) bool {
	for _, b := range s.Bindings {
		if b.Exchange != exchange {
			continue
		}
		for _, pattern := range b.Keys {
			if MatchTopic(pattern, key) {
				return true
			}
		}
	}
	return false
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Connection is the broker resource a service opens once at startup and closes
// on shutdown.
type Connection interface {
	Publisher
	// Declare creates the exchanges, the queue and its bindings.
	Declare(ctx context.Context, sub Subscription) error
	// Consume blocks delivering messages to h until ctx is cancelled or the
	// underlying transport fails.
	Consume(ctx context.Context, sub Subscription, h Handler) error
	Close() error
}

type Config struct {
	Driver       string
	RabbitMQURL  string
	KafkaBrokers []string
	Prefetch     int
}

func (c Config) Validate() error {
	switch c.Driver {
	case DriverRabbitMQ:
		if c.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required for the rabbitmq driver")
		}
	case DriverKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown broker driver %q", c.Driver)
	}
	return nil
}

// Open connects using the configured driver.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 10
	}
	switch cfg.Driver {
	case DriverKafka:
		return NewKafka(cfg.KafkaBrokers, logger), nil
	case DriverMemory:
		return NewMemory(logger), nil
	default:
		return DialRabbitMQ(ctx, cfg.RabbitMQURL, cfg.Prefetch, logger)
	}
}

// Run keeps a consumer alive until ctx is cancelled, restarting it after
// transport failures.
func Run(ctx context.Context, conn Connection, sub Subscription, h Handler, logger *zap.Logger) {
	backoff := time.Second
	for {
		err := conn.Consume(ctx, sub, h)
		if ctx.Err() != nil {
			return
		}
		logger.Error("consumer stopped, restarting",
			zap.String("queue", sub.Queue),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// outcome settles a handler result into the metric label used for it.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeAcked
	case errors.Is(err, ErrPoison):
		return outcomeDropped
	default:
		return outcomeRequeued
	}
}

func exchangesOf(sub Subscription) []string {
	seen := make(map[string]struct{}, len(sub.Bindings))
	out := make([]string, 0, len(sub.Bindings))
	for _, b := range sub.Bindings {
		if _, ok := seen[b.Exchange]; ok {
			continue
		}
		seen[b.Exchange] = struct{}{}
		out = append(out, b.Exchange)
	}
	return out
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
