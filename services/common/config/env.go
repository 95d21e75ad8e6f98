package config

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"
	"github.com/yashrajoria/freelance-marketplace/pkg/broker"
	"github.com/yashrajoria/freelance-marketplace/pkg/outbox"
	"github.com/yashrajoria/freelance-marketplace/services/common/database"
)

// LoadDotEnv loads a .env file when present. Real environment variables win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func GetEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// GetEnvList splits a comma separated variable, dropping empty items.
func GetEnvList(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PostgresFromEnv reads the POSTGRES_* variables.
func PostgresFromEnv() database.PostgresConfig {
	return database.PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		DB:       os.Getenv("POSTGRES_DB"),
		Host:     GetEnv("POSTGRES_HOST", "localhost"),
		Port:     GetEnv("POSTGRES_PORT", "5432"),
		SSLMode:  GetEnv("POSTGRES_SSLMODE", "disable"),
		TimeZone: GetEnv("POSTGRES_TIMEZONE", "UTC"),
	}
}

// SecretGetter is satisfied by awspkg.SecretsClient.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// OverlayPostgresSecret replaces credentials with the JSON secret
// "<service>/DB_CREDENTIALS" when it can be read. Missing keys keep their value.
func OverlayPostgresSecret(ctx context.Context, sm SecretGetter, service string, cfg *database.PostgresConfig) error {
	raw, err := sm.GetSecret(ctx, service+"/DB_CREDENTIALS")
	if err != nil {
		return err
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return err
	}
	set := func(dst *string, key string) {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.User, "POSTGRES_USER")
	set(&cfg.Password, "POSTGRES_PASSWORD")
	set(&cfg.DB, "POSTGRES_DB")
	set(&cfg.Host, "POSTGRES_HOST")
	set(&cfg.Port, "POSTGRES_PORT")
	return nil
}

// OverlayStringSecret sets *dst to the secret name when it is non-empty.
func OverlayStringSecret(ctx context.Context, sm SecretGetter, name string, dst *string) error {
	v, err := sm.GetSecret(ctx, name)
	if err != nil {
		return err
	}
	if v != "" {
		*dst = v
	}
	return nil
}

func useAWSSecrets() bool { return os.Getenv("AWS_USE_SECRETS") == "true" }

// ApplyAWSSecrets performs the overlay when AWS_USE_SECRETS=true.
func ApplyAWSSecrets(ctx context.Context, service string, cfg *database.PostgresConfig) error {
	if !useAWSSecrets() {
		return nil
	}
	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		return err
	}
	return OverlayPostgresSecret(ctx, awspkg.NewSecretsClient(awsCfg), service, cfg)
}

// ApplyAWSStringSecret overlays a single string secret, for example
// "gateway/JWT_SECRET", when AWS_USE_SECRETS=true.
func ApplyAWSStringSecret(ctx context.Context, name string, dst *string) error {
	if !useAWSSecrets() {
		return nil
	}
	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		return err
	}
	return OverlayStringSecret(ctx, awspkg.NewSecretsClient(awsCfg), name, dst)
}

// BrokerFromEnv reads BROKER_DRIVER (rabbitmq by default), RABBITMQ_URL,
// KAFKA_BROKERS and BROKER_PREFETCH.
func BrokerFromEnv() broker.Config {
	return broker.Config{
		Driver:       GetEnv("BROKER_DRIVER", broker.DriverRabbitMQ),
		RabbitMQURL:  os.Getenv("RABBITMQ_URL"),
		KafkaBrokers: broker.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		Prefetch:     GetEnvInt("BROKER_PREFETCH", 10),
	}
}

// RelayFromEnv reads the OUTBOX_* tuning knobs. Zero values fall back to the
// relay defaults.
func RelayFromEnv() outbox.RelayConfig {
	return outbox.RelayConfig{
		PollInterval: GetEnvDuration("OUTBOX_POLL_INTERVAL", 0),
		BatchSize:    GetEnvInt("OUTBOX_BATCH_SIZE", 0),
		Retention:    GetEnvDuration("OUTBOX_RETENTION", 0),
		PurgeEvery:   GetEnvDuration("OUTBOX_PURGE_EVERY", 0),
	}
}
