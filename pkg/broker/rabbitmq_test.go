package broker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingAcknowledger captures how a delivery was settled.
type recordingAcknowledger struct {
	acks    []uint64
	nacks   []uint64
	requeue []bool
	ackErr  error
}

func (a *recordingAcknowledger) Ack(tag uint64, _ bool) error {
	a.acks = append(a.acks, tag)
	return a.ackErr
}

func (a *recordingAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.nacks = append(a.nacks, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name        string
		handlerErr  error
		wantAcks    []uint64
		wantNacks   []uint64
		wantRequeue []bool
		wantOutcome string
	}{
		{
			name:        "success acks",
			wantAcks:    []uint64{7},
			wantOutcome: outcomeAcked,
		},
		{
			name:        "failure nacks with requeue",
			handlerErr:  errors.New("database down"),
			wantNacks:   []uint64{7},
			wantRequeue: []bool{true},
			wantOutcome: outcomeRequeued,
		},
		{
			name:        "poison acks and drops",
			handlerErr:  fmt.Errorf("%w: bad payload", ErrPoison),
			wantAcks:    []uint64{7},
			wantOutcome: outcomeDropped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := "settle." + tt.wantOutcome
			before := testutil.ToFloat64(deliveriesTotal.WithLabelValues(queue, tt.wantOutcome))

			ack := &recordingAcknowledger{}
			var got Delivery
			r := &RabbitMQ{logger: zap.NewNop()}
			r.settle(context.Background(), zap.NewNop(), queue, amqp.Delivery{
				Acknowledger: ack,
				DeliveryTag:  7,
				Exchange:     "orders",
				RoutingKey:   "order.accepted",
				MessageId:    "m-1",
				Redelivered:  true,
				Body:         []byte(`{}`),
			}, func(_ context.Context, d Delivery) error {
				got = d
				return tt.handlerErr
			})

			assert.Equal(t, tt.wantAcks, ack.acks)
			assert.Equal(t, tt.wantNacks, ack.nacks)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
			assert.Equal(t, before+1, testutil.ToFloat64(deliveriesTotal.WithLabelValues(queue, tt.wantOutcome)))

			require.Equal(t, queue, got.Queue)
			assert.Equal(t, "orders", got.Exchange)
			assert.Equal(t, "order.accepted", got.RoutingKey)
			assert.Equal(t, "m-1", got.MessageID)
			assert.True(t, got.Redelivered)
		})
	}
}

func TestSettle_AckFailureIsLoggedNotPanicked(t *testing.T) {
	ack := &recordingAcknowledger{ackErr: amqp.ErrClosed}
	r := &RabbitMQ{logger: zap.NewNop()}

	assert.NotPanics(t, func() {
		r.settle(context.Background(), zap.NewNop(), "settle.closed", amqp.Delivery{Acknowledger: ack, DeliveryTag: 9},
			func(context.Context, Delivery) error { return nil })
	})
	assert.Equal(t, []uint64{9}, ack.acks)
}
