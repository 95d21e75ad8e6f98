// Package events defines the versioned domain events exchanged between services
// and the JSON envelope they travel in.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SchemaVersion is the newest envelope schema this package can decode.
const SchemaVersion = 1

// Exchanges, one topic exchange per owning domain.
const (
	ExchangeOrders        = "order_events"
	ExchangePayments      = "payment_events"
	ExchangeReviews       = "review_events"
	ExchangeNotifications = "notification_events"
	ExchangeProfiles      = "profile_events"
)

var (
	ErrUnknownEventType   = errors.New("unknown event type")
	ErrUnsupportedVersion = errors.New("unsupported schema version")
	ErrMalformed          = errors.New("malformed event")
)

// Type is the event name. It doubles as the routing key.
type Type string

// Event is implemented by every payload variant.
type Event interface {
	EventType() Type
	Exchange() string
	// AggregateID is the id of the entity the event is about.
	AggregateID() int64
}

// Envelope is the wire form of every event.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	Type          Type            `json:"type"`
	SchemaVersion int             `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Source        string          `json:"source"`
	Payload       json.RawMessage `json:"payload"`
}

// AggregateType is the noun of the routing key, e.g. "order" for order.accepted.
func (t Type) AggregateType() string {
	noun, _, _ := strings.Cut(string(t), ".")
	return noun
}

// New wraps e in a fresh envelope stamped with a new event id.
func New(source string, e Event) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", e.EventType(), err)
	}
	return Envelope{
		EventID:       uuid.New(),
		Type:          e.EventType(),
		SchemaVersion: SchemaVersion,
		OccurredAt:    time.Now().UTC(),
		Source:        source,
		Payload:       payload,
	}, nil
}

// Encode marshals the envelope to its JSON body.
func (env Envelope) Encode() ([]byte, error) {
	return json.Marshal(env)
}

// Decode parses a message body and its payload variant. On ErrUnknownEventType
// the returned envelope is still populated so callers can log it.
func Decode(body []byte) (Envelope, Event, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" || env.EventID == uuid.Nil {
		return env, nil, fmt.Errorf("%w: missing type or event_id", ErrMalformed)
	}
	ev, err := Parse(env)
	return env, ev, err
}

// Parse decodes the payload of an already unmarshalled envelope.
func Parse(env Envelope) (Event, error) {
	if env.SchemaVersion < 1 {
		return nil, fmt.Errorf("%w: schema_version %d", ErrMalformed, env.SchemaVersion)
	}
	if env.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("%w: %s v%d", ErrUnsupportedVersion, env.Type, env.SchemaVersion)
	}
	decode, ok := registry[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, env.Type)
	}
	ev, err := decode(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformed, env.Type, err)
	}
	return ev, nil
}

// Known reports whether t has a registered variant.
func Known(t Type) bool {
	_, ok := registry[t]
	return ok
}

var registry = map[Type]func(json.RawMessage) (Event, error){
	OrderCreatedType:       decodeAs[OrderCreated],
	OrderApprovedType:      decodeAs[OrderApproved],
	OrderRejectedType:      decodeAs[OrderRejected],
	OrderAcceptedType:      decodeAs[OrderAccepted],
	OrderStatusChangedType: decodeAs[OrderStatusChanged],
	OrderCancelledType:     decodeAs[OrderCancelled],

	PaymentInitiatedType: decodeAs[PaymentInitiated],
	PaymentCompletedType: decodeAs[PaymentCompleted],
	PaymentFailedType:    decodeAs[PaymentFailed],
	RefundProcessedType:  decodeAs[RefundProcessed],

	ReviewCreatedType: decodeAs[ReviewCreated],
	RatingUpdatedType: decodeAs[RatingUpdated],

	NotificationSentType: decodeAs[NotificationSent],

	ProfileCustomerCreatedType: decodeAs[ProfileCreated],
	ProfileProviderCreatedType: decodeAs[ProfileCreated],
	ProfileCustomerUpdatedType: decodeAs[ProfileUpdated],
	ProfileProviderUpdatedType: decodeAs[ProfileUpdated],
}

func decodeAs[T Event](raw json.RawMessage) (Event, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Money is a decimal amount that always marshals with two fraction digits,
// e.g. "150.00".
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

// MustMoney parses s and panics on error. Intended for constants and tests.
func MustMoney(s string) Money { return Money{Decimal: decimal.RequireFromString(s)} }

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.StringFixed(2))
}
