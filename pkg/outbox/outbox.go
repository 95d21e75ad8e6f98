// Package outbox stores events in the same transaction as the state change
// that produced them and relays them to the broker afterwards.
package outbox

import (
	"fmt"
	"time"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusPublished = "published"
)

// Record is one row of the outbox table. Its ID is the event id, so the
// broker message id is stable across relay retries.
type Record struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AggregateType string     `gorm:"size:50;not null" json:"aggregate_type"`
	AggregateID   int64      `gorm:"not null" json:"aggregate_id"`
	Exchange      string     `gorm:"size:100;not null" json:"exchange"`
	RoutingKey    string     `gorm:"size:100;not null" json:"routing_key"`
	Payload       []byte     `gorm:"type:jsonb;not null" json:"payload"`
	Status        string     `gorm:"size:20;not null;default:'pending';index:idx_outbox_status_created,priority:1" json:"status"`
	Attempts      int        `gorm:"not null" json:"attempts"`
	LastError     string     `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt     time.Time  `gorm:"index:idx_outbox_status_created,priority:2" json:"created_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}

func (Record) TableName() string { return "outbox" }

// Enqueue wraps e in an envelope and inserts it as a pending row using tx.
// It must be called inside the transaction that makes the change e describes.
func Enqueue(tx *gorm.DB, source string, e events.Event) (events.Envelope, error) {
	env, err := events.New(source, e)
	if err != nil {
		return events.Envelope{}, err
	}
	body, err := env.Encode()
	if err != nil {
		return events.Envelope{}, err
	}
	rec := Record{
		ID:            env.EventID,
		AggregateType: env.Type.AggregateType(),
		AggregateID:   e.AggregateID(),
		Exchange:      e.Exchange(),
		RoutingKey:    string(env.Type),
		Payload:       body,
		Status:        StatusPending,
		CreatedAt:     env.OccurredAt,
	}
	if err := tx.Create(&rec).Error; err != nil {
		return events.Envelope{}, fmt.Errorf("failed to enqueue %s: %w", env.Type, err)
	}
	return env, nil
}
