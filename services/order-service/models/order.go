package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusPending       Status = "pending"
	StatusAccepted      Status = "accepted"
	StatusInProgress    Status = "in_progress"
	StatusCompleted     Status = "completed"
	// StatusReviewed is accepted in storage but no transition produces it.
	StatusReviewed  Status = "reviewed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusPendingReview, StatusPending, StatusAccepted, StatusInProgress,
	StatusCompleted, StatusReviewed, StatusCancelled,
}

// transitions is the complete edge set of the order lifecycle.
var transitions = map[Status][]Status{
	StatusPendingReview: {StatusPending, StatusCancelled},
	StatusPending:       {StatusAccepted, StatusCancelled},
	StatusAccepted:      {StatusInProgress, StatusCancelled},
	StatusInProgress:    {StatusCompleted},
}

func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether from -> to is a declared edge.
func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Active statuses are those a customer still tracks.
func (s Status) Active() bool {
	switch s {
	case StatusPendingReview, StatusPending, StatusAccepted, StatusInProgress:
		return true
	}
	return false
}

// ActiveStatuses lists the statuses for which Active is true.
func ActiveStatuses() []Status {
	return []Status{StatusPendingReview, StatusPending, StatusAccepted, StatusInProgress}
}

type ServiceType string

const (
	ServiceCleaningRepair    ServiceType = "cleaning_repair"
	ServiceITTechnology      ServiceType = "it_technology"
	ServiceEducationTraining ServiceType = "education_training"
	ServiceLifeHealth        ServiceType = "life_health"
	ServiceDesignConsulting  ServiceType = "design_consulting"
	ServiceOther             ServiceType = "other"
)

func (t ServiceType) Valid() bool {
	switch t {
	case ServiceCleaningRepair, ServiceITTechnology, ServiceEducationTraining,
		ServiceLifeHealth, ServiceDesignConsulting, ServiceOther:
		return true
	}
	return false
}

type Location string

const (
	LocationNorth Location = "NORTH"
	LocationSouth Location = "SOUTH"
	LocationEast  Location = "EAST"
	LocationWest  Location = "WEST"
	LocationMid   Location = "MID"
)

func (l Location) Valid() bool {
	switch l {
	case LocationNorth, LocationSouth, LocationEast, LocationWest, LocationMid:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Order is owned by the order-service. ProviderID is set exactly when the
// order has been accepted.
type Order struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID       int64           `gorm:"not null;index" json:"customer_id"`
	ProviderID       *int64          `gorm:"index" json:"provider_id"`
	Title            string          `gorm:"size:200;not null" json:"title"`
	Description      string          `gorm:"type:text" json:"description"`
	ServiceType      ServiceType     `gorm:"type:varchar(30);not null" json:"service_type"`
	Status           Status          `gorm:"type:varchar(20);not null;default:'pending_review';index" json:"status"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Location         Location        `gorm:"type:varchar(10);not null;index" json:"location"`
	Address          string          `gorm:"size:255" json:"address"`
	ServiceStartTime *time.Time      `json:"service_start_time"`
	ServiceEndTime   *time.Time      `json:"service_end_time"`
	PaymentStatus    PaymentStatus   `gorm:"type:varchar(10);not null;default:'unpaid'" json:"payment_status"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}
