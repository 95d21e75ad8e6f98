package outbox

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/yashrajoria/freelance-marketplace/pkg/broker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	relayPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox rows published to the broker",
	})
	relayFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_failed_total",
		Help: "Outbox publish attempts that failed and were left pending",
	})
	relayBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_last_batch_size",
		Help: "Rows claimed by the most recent relay batch",
	})
)

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Retention    time.Duration
	// PurgeEvery is how often published rows past Retention are deleted.
	PurgeEvery time.Duration
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	if c.PurgeEvery <= 0 {
		c.PurgeEvery = time.Minute
	}
	return c
}

// Relay publishes pending rows. Several relays may poll the same table; rows
// are claimed with FOR UPDATE SKIP LOCKED so each is sent by one of them.
type Relay struct {
	db     *gorm.DB
	pub    broker.Publisher
	logger *zap.Logger
	cfg    RelayConfig
}

func NewRelay(db *gorm.DB, pub broker.Publisher, logger *zap.Logger, cfg RelayConfig) *Relay {
	return &Relay{db: db, pub: pub, logger: logger, cfg: cfg.withDefaults()}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()
	purge := time.NewTicker(r.cfg.PurgeEvery)
	defer purge.Stop()

	r.logger.Info("outbox relay started",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("batch_size", r.cfg.BatchSize),
	)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-poll.C:
			if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox batch failed", zap.Error(err))
			}
		case <-purge.C:
			if n, err := r.Purge(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox purge failed", zap.Error(err))
			} else if n > 0 {
				r.logger.Info("outbox purged", zap.Int64("rows", n))
			}
		}
	}
}

// ProcessBatch claims up to BatchSize pending rows, publishes them and records
// the result of each. It returns how many were published.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	published := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []Record
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", StatusPending).
			Order("created_at").
			Limit(r.cfg.BatchSize).
			Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to claim outbox rows: %w", err)
		}
		relayBatchSize.Set(float64(len(rows)))

		for _, row := range rows {
			err := r.pub.Publish(ctx, broker.Message{
				Exchange:   row.Exchange,
				RoutingKey: row.RoutingKey,
				MessageID:  row.ID.String(),
				Key:        strconv.FormatInt(row.AggregateID, 10),
				Body:       row.Payload,
			})
			if err != nil {
				relayFailed.Inc()
				r.logger.Warn("outbox publish failed",
					zap.String("event_id", row.ID.String()),
					zap.String("type", row.RoutingKey),
					zap.Int("attempts", row.Attempts+1),
					zap.Error(err),
				)
				if uerr := tx.Model(&Record{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
					"attempts":   gorm.Expr("attempts + 1"),
					"last_error": err.Error(),
				}).Error; uerr != nil {
					return fmt.Errorf("failed to record publish failure: %w", uerr)
				}
				continue
			}

			now := time.Now().UTC()
			if uerr := tx.Model(&Record{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
				"status":       StatusPublished,
				"published_at": now,
			}).Error; uerr != nil {
				return fmt.Errorf("failed to mark row published: %w", uerr)
			}
			relayPublished.Inc()
			published++
		}
		return nil
	})
	return published, err
}

// Purge deletes published rows older than Retention.
func (r *Relay) Purge(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-r.cfg.Retention)
	res := r.db.WithContext(ctx).
		Where("status = ? AND published_at < ?", StatusPublished, cutoff).
		Delete(&Record{})
	return res.RowsAffected, res.Error
}
