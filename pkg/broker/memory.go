package broker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const memoryQueueDepth = 1024

// Memory is an in-process Connection with the same routing and settlement
// rules as the network drivers. Messages published before a queue is declared
// are not routed to it.
type Memory struct {
	logger *zap.Logger

	mu        sync.Mutex
	queues    map[string]*memoryQueue
	published []Message
	closed    bool
	done      chan struct{}
}

type memoryQueue struct {
	sub Subscription
	ch  chan Delivery
}

func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		logger: logger,
		queues: make(map[string]*memoryQueue),
		done:   make(chan struct{}),
	}
}

func (m *Memory) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	// A message reaches every matching queue or none of them.
	targets := make(map[string]*memoryQueue)
	for name, q := range m.queues {
		if !q.sub.matches(msg.Exchange, msg.RoutingKey) {
			continue
		}
		if len(q.ch) == cap(q.ch) {
			err := fmt.Errorf("queue %s is full", name)
			recordPublish(msg.Exchange, err)
			return err
		}
		targets[name] = q
	}
	m.published = append(m.published, msg)
	for name, q := range targets {
		select {
		case q.ch <- Delivery{Message: msg, Queue: name}:
		default:
			// Only a concurrent requeue can take the slot checked above.
			m.logger.Error("queue filled during publish, dropping", zap.String("queue", name), zap.String("message_id", msg.MessageID))
		}
	}
	recordPublish(msg.Exchange, nil)
	return nil
}

// Published returns every message accepted so far.
func (m *Memory) Published() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.published))
	copy(out, m.published)
	return out
}

func (m *Memory) Declare(_ context.Context, sub Subscription) error {
	_, err := m.declare(sub)
	return err
}

func (m *Memory) declare(sub Subscription) (*memoryQueue, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	q, ok := m.queues[sub.Queue]
	if !ok {
		q = &memoryQueue{sub: sub, ch: make(chan Delivery, memoryQueueDepth)}
		m.queues[sub.Queue] = q
		return q, nil
	}
	q.sub.Bindings = append(q.sub.Bindings, sub.Bindings...)
	return q, nil
}

func (m *Memory) Consume(ctx context.Context, sub Subscription, h Handler) error {
	q, err := m.declare(sub)
	if err != nil {
		return err
	}
	log := m.logger.With(zap.String("queue", sub.Queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.done:
			return ErrClosed
		case d := <-q.ch:
			err := h(ctx, d)
			result := outcome(err)
			deliveriesTotal.WithLabelValues(sub.Queue, result).Inc()
			switch result {
			case outcomeRequeued:
				log.Warn("handler failed, requeueing", zap.String("message_id", d.MessageID), zap.Error(err))
				d.Redelivered = true
				select {
				case q.ch <- d:
				default:
					log.Error("queue full, dropping requeued message", zap.String("message_id", d.MessageID))
				}
			case outcomeDropped:
				log.Error("dropping poison message", zap.String("message_id", d.MessageID), zap.Error(err))
			}
		}
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}
