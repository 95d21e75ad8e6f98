package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type PaymentMethod string

// MethodSimulated settles immediately; there is no external gateway.
const MethodSimulated PaymentMethod = "simulated"

// Payment is one attempt to pay an order. The partial unique index allows any
// number of pending or failed attempts but a single completed one per order.
type Payment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       int64           `gorm:"not null;index;uniqueIndex:idx_payments_completed_order,where:status = 'completed'" json:"order_id"`
	CustomerID    int64           `gorm:"not null;index" json:"customer_id"`
	ProviderID    *int64          `json:"provider_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null;default:'simulated'" json:"payment_method"`
	Status        PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TransactionID *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"transaction_id"`
	FailureReason string          `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type TransactionType string

const (
	TransactionPayment TransactionType = "payment"
	TransactionRefund  TransactionType = "refund"
)

// Transaction is an append-only ledger row.
type Transaction struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64           `gorm:"not null;index" json:"user_id"`
	TransactionType TransactionType `gorm:"type:varchar(10);not null" json:"transaction_type"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	ReferenceID     int64           `json:"reference_id"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundCompleted RefundStatus = "completed"
	RefundRejected  RefundStatus = "rejected"
)

// Refund is unique per order, so a second refund request fails in storage.
type Refund struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID  int64           `gorm:"not null;index" json:"payment_id"`
	OrderID    int64           `gorm:"not null;uniqueIndex" json:"order_id"`
	CustomerID int64           `gorm:"not null" json:"customer_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status     RefundStatus    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Reason     string          `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type PayOrderRequest struct {
	OrderID int64 `json:"order_id" binding:"required,min=1"`
}

type PayOrderResponse struct {
	PaymentID     int64           `json:"payment_id"`
	OrderID       int64           `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Message       string          `json:"message"`
}

type RefundRequest struct {
	OrderID int64  `json:"order_id" binding:"required,min=1"`
	Reason  string `json:"reason"`
}

type RefundResponse struct {
	RefundID int64           `json:"refund_id"`
	OrderID  int64           `json:"order_id"`
	Amount   decimal.Decimal `json:"amount"`
	Status   RefundStatus    `json:"status"`
	Message  string          `json:"message"`
}
