package broker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var kafkaSub = Subscription{
	Queue:    "test.kafka",
	Bindings: []Binding{{Exchange: "orders", Keys: []string{"order.accepted", "order.cancelled"}}},
}

func kafkaMessage(topic, routingKey string) kafka.Message {
	return kafka.Message{
		Topic: topic,
		Key:   []byte("42"),
		Value: []byte(`{}`),
		Headers: []kafka.Header{
			{Key: headerMessageID, Value: []byte("m-1")},
			{Key: headerRoutingKey, Value: []byte(routingKey)},
		},
	}
}

func TestDeliveryFor_FiltersOnRoutingKeyHeader(t *testing.T) {
	d, ok := deliveryFor(kafkaSub, kafkaMessage("orders", "order.accepted"))
	require.True(t, ok)
	assert.Equal(t, Delivery{
		Message: Message{
			Exchange:   "orders",
			RoutingKey: "order.accepted",
			MessageID:  "m-1",
			Key:        "42",
			Body:       []byte(`{}`),
		},
		Queue: "test.kafka",
	}, d)

	_, ok = deliveryFor(kafkaSub, kafkaMessage("orders", "order.created"))
	assert.False(t, ok, "unbound routing key on a subscribed topic")

	_, ok = deliveryFor(kafkaSub, kafkaMessage("payments", "order.accepted"))
	assert.False(t, ok, "bound key on another topic")

	_, ok = deliveryFor(kafkaSub, kafka.Message{Topic: "orders"})
	assert.False(t, ok, "missing routing key header")
}

func TestKafkaHandle_RetriesInPlaceUntilSuccess(t *testing.T) {
	k := &Kafka{logger: zap.NewNop(), retry: time.Millisecond}
	d, _ := deliveryFor(kafkaSub, kafkaMessage("orders", "order.accepted"))

	var redelivered []bool
	err := k.handle(context.Background(), zap.NewNop(), d, func(_ context.Context, d Delivery) error {
		redelivered = append(redelivered, d.Redelivered)
		if len(redelivered) < 3 {
			return errors.New("database down")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true}, redelivered)
}

func TestKafkaHandle_PoisonIsNotRetried(t *testing.T) {
	k := &Kafka{logger: zap.NewNop(), retry: time.Millisecond}
	d, _ := deliveryFor(kafkaSub, kafkaMessage("orders", "order.accepted"))

	calls := 0
	err := k.handle(context.Background(), zap.NewNop(), d, func(context.Context, Delivery) error {
		calls++
		return fmt.Errorf("%w: bad payload", ErrPoison)
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestKafkaHandle_CancellationStopsRetrying(t *testing.T) {
	k := &Kafka{logger: zap.NewNop(), retry: time.Hour}
	d, _ := deliveryFor(kafkaSub, kafkaMessage("orders", "order.accepted"))
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := k.handle(ctx, zap.NewNop(), d, func(context.Context, Delivery) error {
		calls++
		cancel()
		return errors.New("database down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
