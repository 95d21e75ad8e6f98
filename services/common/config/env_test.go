package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yashrajoria/freelance-marketplace/services/common/config"
	"github.com/yashrajoria/freelance-marketplace/services/common/database"

	"github.com/stretchr/testify/assert"
)

type mockSecrets struct {
	value string
	err   error
	asked string
}

func (m *mockSecrets) GetSecret(_ context.Context, name string) (string, error) {
	m.asked = name
	return m.value, m.err
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "7")
	t.Setenv("X_DUR", "3s")
	t.Setenv("X_LIST", "a, b,,c")

	assert.Equal(t, 7, config.GetEnvInt("X_INT", 1))
	assert.Equal(t, 1, config.GetEnvInt("X_MISSING", 1))
	assert.Equal(t, 3*time.Second, config.GetEnvDuration("X_DUR", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, config.GetEnvList("X_LIST"))
	assert.Equal(t, "fb", config.GetEnv("X_MISSING", "fb"))
}

func TestOverlayPostgresSecret(t *testing.T) {
	sm := &mockSecrets{value: `{"POSTGRES_USER":"svc","POSTGRES_PASSWORD":"pw"}`}
	cfg := database.PostgresConfig{User: "local", Password: "x", DB: "orders", Host: "db"}

	err := config.OverlayPostgresSecret(context.Background(), sm, "order", &cfg)

	assert.NoError(t, err)
	assert.Equal(t, "order/DB_CREDENTIALS", sm.asked)
	assert.Equal(t, "svc", cfg.User)
	assert.Equal(t, "pw", cfg.Password)
	assert.Equal(t, "orders", cfg.DB)
}

func TestOverlayPostgresSecret_Error(t *testing.T) {
	sm := &mockSecrets{err: errors.New("denied")}
	cfg := database.PostgresConfig{User: "local"}

	err := config.OverlayPostgresSecret(context.Background(), sm, "order", &cfg)

	assert.Error(t, err)
	assert.Equal(t, "local", cfg.User)
}

func TestBrokerFromEnv_Kafka(t *testing.T) {
	t.Setenv("BROKER_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg := config.BrokerFromEnv()

	assert.Equal(t, "kafka", cfg.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10, cfg.Prefetch)
	assert.NoError(t, cfg.Validate())
}

func TestBrokerFromEnv_RabbitRequiresURL(t *testing.T) {
	t.Setenv("BROKER_DRIVER", "")
	t.Setenv("RABBITMQ_URL", "")

	assert.Error(t, config.BrokerFromEnv().Validate())
}

func TestRelayFromEnv(t *testing.T) {
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "20")

	cfg := config.RelayFromEnv()

	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 20, cfg.BatchSize)
	assert.Zero(t, cfg.Retention)
}

func TestOverlayStringSecret(t *testing.T) {
	jwt := "from-env"
	assert.NoError(t, config.OverlayStringSecret(context.Background(), &mockSecrets{value: "rotated"}, "gateway/JWT_SECRET", &jwt))
	assert.Equal(t, "rotated", jwt)

	assert.NoError(t, config.OverlayStringSecret(context.Background(), &mockSecrets{}, "gateway/JWT_SECRET", &jwt))
	assert.Equal(t, "rotated", jwt)
}

func TestApplyAWSSecrets_DisabledIsNoop(t *testing.T) {
	t.Setenv("AWS_USE_SECRETS", "false")
	cfg := database.PostgresConfig{User: "local"}
	jwt := "k"

	assert.NoError(t, config.ApplyAWSSecrets(context.Background(), "order", &cfg))
	assert.NoError(t, config.ApplyAWSStringSecret(context.Background(), "gateway/JWT_SECRET", &jwt))
	assert.Equal(t, "local", cfg.User)
	assert.Equal(t, "k", jwt)
}
