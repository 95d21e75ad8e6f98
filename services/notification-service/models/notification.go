package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RecipientType string

const (
	RecipientCustomer RecipientType = "customer"
	RecipientProvider RecipientType = "provider"
)

func (r RecipientType) Valid() bool {
	return r == RecipientCustomer || r == RecipientProvider
}

// InboxEntry is one notification in a recipient's inbox. EventID is the id of
// the event that produced it; together with the recipient it is unique, so a
// redelivered event never writes the same entry twice. A nil OrderID marks a
// platform-wide notice.
type InboxEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID       string             `bson:"event_id" json:"event_id"`
	RecipientType RecipientType      `bson:"recipient_type" json:"recipient_type"`
	RecipientID   int64              `bson:"recipient_id" json:"recipient_id"`
	OrderID       *int64             `bson:"order_id" json:"order_id"`
	Message       string             `bson:"message" json:"message"`
	IsRead        bool               `bson:"is_read" json:"is_read"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

type InboxList struct {
	Items  []InboxEntry `json:"items"`
	Total  int64        `json:"total"`
	Unread int64        `json:"unread"`
	Page   int          `json:"page"`
	Limit  int          `json:"limit"`
}

type PlatformNoticeRequest struct {
	Message string `json:"message" binding:"required"`
}
