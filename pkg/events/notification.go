package events

const NotificationSentType Type = "notification.sent"

// NotificationSent is emitted after an inbox entry is written. A nil OrderID
// marks a platform-wide notice.
type NotificationSent struct {
	RecipientID   int64  `json:"recipient_id"`
	RecipientType string `json:"recipient_type"`
	OrderID       *int64 `json:"order_id"`
	Message       string `json:"message"`
}

func (NotificationSent) EventType() Type      { return NotificationSentType }
func (NotificationSent) Exchange() string     { return ExchangeNotifications }
func (e NotificationSent) AggregateID() int64 { return e.RecipientID }
