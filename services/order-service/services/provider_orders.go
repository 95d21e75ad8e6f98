package services

import (
	"context"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/repository"
)

const errAlreadyAccepted = "The order has already been accepted"

func (s *orderServiceImpl) ListAvailableOrders(ctx context.Context, filter models.AvailableFilter, page, limit int) (*OrderResponse, error) {
	if filter.Location != nil && !filter.Location.Valid() {
		return nil, apperrors.Validation("Invalid location: " + string(*filter.Location))
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, apperrors.Validation("min_price must not exceed max_price")
	}
	return s.page(ctx, repository.ListFilter{
		Statuses:  []models.Status{models.StatusPending},
		Available: &filter,
	}, page, limit)
}

func (s *orderServiceImpl) GetAvailableOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending {
		return nil, apperrors.Conflict("This order is no longer available for acceptance")
	}
	return order, nil
}

// AcceptOrder binds the provider. Of two concurrent accepts exactly one
// matches the pending row; the other gets Conflict.
func (s *orderServiceImpl) AcceptOrder(ctx context.Context, providerID, orderID int64) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending {
		return nil, apperrors.Conflict(errAlreadyAccepted)
	}

	return s.transition(ctx, repository.Transition{
		OrderID: orderID,
		From:    models.StatusPending,
		Set: map[string]interface{}{
			"status":      models.StatusAccepted,
			"provider_id": providerID,
		},
		Event: func(o *models.Order) events.Event {
			return events.OrderAccepted{OrderID: o.ID, CustomerID: o.CustomerID, ProviderID: providerID}
		},
	}, errAlreadyAccepted)
}

// UpdateOrderStatus moves a bound order accepted -> in_progress -> completed.
// Any other target, known or not, is a Conflict once ownership is checked.
func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, providerID, orderID int64, newStatus models.Status) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ProviderID == nil || *order.ProviderID != providerID {
		return nil, apperrors.Permission("Permission denied: not your order")
	}

	var conflict string
	switch newStatus {
	case models.StatusInProgress:
		conflict = "Order must be accepted before starting"
	case models.StatusCompleted:
		conflict = "Order must be in progress before completing"
	default:
		return nil, apperrors.Conflict("Unsupported status update")
	}
	if !order.Status.CanTransitionTo(newStatus) {
		return nil, apperrors.Conflict(conflict)
	}

	return s.transition(ctx, repository.Transition{
		OrderID: orderID,
		From:    order.Status,
		Set:     map[string]interface{}{"status": newStatus},
		Event:   statusChanged(order.Status),
	}, conflict)
}

func (s *orderServiceImpl) GetProviderOrder(ctx context.Context, providerID, orderID int64) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ProviderID == nil || *order.ProviderID != providerID {
		return nil, apperrors.Permission("Permission denied")
	}
	return order, nil
}

func (s *orderServiceImpl) ListProviderHistory(ctx context.Context, providerID int64, page, limit int) (*OrderResponse, error) {
	return s.page(ctx, repository.ListFilter{
		ProviderID: &providerID,
		OrderBy:    "updated_at DESC",
	}, page, limit)
}
