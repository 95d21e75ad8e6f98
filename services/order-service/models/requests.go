package models

import (
	"time"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/validation"

	"github.com/shopspring/decimal"
)

type PublishOrderRequest struct {
	Title            string          `json:"title" binding:"notblank,max=200"`
	Description      string          `json:"description" binding:"max=5000"`
	ServiceType      ServiceType     `json:"service_type" binding:"oneof=cleaning_repair it_technology education_training life_health design_consulting other"`
	Price            decimal.Decimal `json:"price" binding:"gt=0"`
	Location         Location        `json:"location" binding:"oneof=NORTH SOUTH EAST WEST MID"`
	Address          string          `json:"address" binding:"max=500"`
	ServiceStartTime *time.Time      `json:"service_start_time"`
	ServiceEndTime   *time.Time      `json:"service_end_time"`
}

// Validate applies the binding tags and the service window check. The service
// layer calls it so requests built outside gin are held to the same rules.
func (r *PublishOrderRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	return validateWindow(r.ServiceStartTime, r.ServiceEndTime)
}

func validateWindow(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return apperrors.Validation("service_end_time must be after service_start_time")
	}
	return nil
}

type ApproveOrderRequest struct {
	Approved     bool    `json:"approved"`
	RejectReason *string `json:"reject_reason"`
}

type UpdateStatusRequest struct {
	NewStatus Status `json:"new_status" binding:"required"`
}

// AdminUpdateOrderRequest holds the fields an admin may change. Nil fields are
// left untouched.
type AdminUpdateOrderRequest struct {
	Title            *string          `json:"title" binding:"omitempty,notblank,max=200"`
	Description      *string          `json:"description" binding:"omitempty,max=5000"`
	ServiceType      *ServiceType     `json:"service_type" binding:"omitempty,oneof=cleaning_repair it_technology education_training life_health design_consulting other"`
	Price            *decimal.Decimal `json:"price" binding:"omitempty,gt=0"`
	Location         *Location        `json:"location" binding:"omitempty,oneof=NORTH SOUTH EAST WEST MID"`
	Address          *string          `json:"address" binding:"omitempty,max=500"`
	ServiceStartTime *time.Time       `json:"service_start_time"`
	ServiceEndTime   *time.Time       `json:"service_end_time"`
	Status           *Status          `json:"status" binding:"omitempty,oneof=pending_review pending accepted in_progress completed reviewed cancelled"`
}

// Changes validates r against the current order and returns the columns to
// update. Status is only accepted along a declared edge, and never out of
// pending_review: approval and rejection go through ApproveOrder.
func (r *AdminUpdateOrderRequest) Changes(current *Order) (map[string]interface{}, error) {
	if err := validation.Struct(r); err != nil {
		return nil, err
	}

	set := map[string]interface{}{}
	if r.Title != nil {
		set["title"] = *r.Title
	}
	if r.Description != nil {
		set["description"] = *r.Description
	}
	if r.ServiceType != nil {
		set["service_type"] = *r.ServiceType
	}
	if r.Price != nil {
		set["price"] = *r.Price
	}
	if r.Location != nil {
		set["location"] = *r.Location
	}
	if r.Address != nil {
		set["address"] = *r.Address
	}

	start, end := current.ServiceStartTime, current.ServiceEndTime
	if r.ServiceStartTime != nil {
		start = r.ServiceStartTime
		set["service_start_time"] = *r.ServiceStartTime
	}
	if r.ServiceEndTime != nil {
		end = r.ServiceEndTime
		set["service_end_time"] = *r.ServiceEndTime
	}
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}

	if r.Status != nil && *r.Status != current.Status {
		if current.Status == StatusPendingReview {
			return nil, apperrors.Conflict("Orders pending review must be approved or rejected through the approve endpoint")
		}
		if !current.Status.CanTransitionTo(*r.Status) {
			return nil, apperrors.Conflict("Cannot change status from " + string(current.Status) + " to " + string(*r.Status))
		}
		// provider binding is only created by accept_order
		if *r.Status == StatusAccepted {
			return nil, apperrors.Conflict("Orders can only be accepted by a provider")
		}
		set["status"] = *r.Status
	}

	if len(set) == 0 {
		return nil, apperrors.Validation("No valid fields to update")
	}
	return set, nil
}

// AvailableFilter narrows the pending orders a provider browses.
type AvailableFilter struct {
	Location *Location
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Keyword  string
}
