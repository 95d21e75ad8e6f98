package broker_test

import (
	"testing"

	"github.com/yashrajoria/freelance-marketplace/pkg/broker"

	"github.com/stretchr/testify/assert"
)

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		pattern, key string
		want         bool
	}{
		{"order.created", "order.created", true},
		{"order.created", "order.accepted", false},
		{"order.*", "order.status_changed", true},
		{"order.*", "order", false},
		{"order.*", "order.a.b", false},
		{"*.created", "review.created", true},
		{"#", "anything.at.all", true},
		{"#", "", true},
		{"profile.#", "profile", true},
		{"profile.#", "profile.customer.created", true},
		{"profile.#.created", "profile.provider.created", true},
		{"profile.#.created", "profile.created", true},
		{"profile.#.created", "profile.provider.updated", false},
		{"profile.*.created", "profile.customer.created", true},
		{"payment.*", "refund.processed", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, broker.MatchTopic(tt.pattern, tt.key))
		})
	}
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, broker.ParseBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, broker.ParseBrokers(""))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, broker.Config{Driver: broker.DriverMemory}.Validate())
	assert.Error(t, broker.Config{Driver: broker.DriverRabbitMQ}.Validate())
	assert.Error(t, broker.Config{Driver: broker.DriverKafka}.Validate())
	assert.Error(t, broker.Config{Driver: "nats"}.Validate())
}
