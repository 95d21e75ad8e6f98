package services

import (
	"context"
	"strings"

	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"
	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/repository"

	"go.uber.org/zap"
)

// PublishOrder creates the order in pending_review and emits order.created.
func (s *orderServiceImpl) PublishOrder(ctx context.Context, customerID int64, req *models.PublishOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:       customerID,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		ServiceType:      req.ServiceType,
		Status:           models.StatusPendingReview,
		Price:            req.Price.Round(2),
		Location:         req.Location,
		Address:          req.Address,
		ServiceStartTime: req.ServiceStartTime,
		ServiceEndTime:   req.ServiceEndTime,
		PaymentStatus:    models.PaymentUnpaid,
	}
	err := s.repo.Create(ctx, order, func(o *models.Order) events.Event {
		return events.OrderCreated{
			OrderID:     o.ID,
			CustomerID:  o.CustomerID,
			Title:       o.Title,
			Price:       events.NewMoney(o.Price),
			Location:    string(o.Location),
			ServiceType: string(o.ServiceType),
		}
	})
	if err != nil {
		s.logger.Error("Failed to publish order", zap.Int64("customer_id", customerID), zap.Error(err))
		return nil, apperrors.Internal("Failed to publish order", err)
	}

	s.logger.Info("Order published", zap.Int64("order_id", order.ID), zap.Int64("customer_id", customerID))
	if s.metrics.IsEnabled() {
		go func() {
			_ = s.metrics.RecordCount(context.WithoutCancel(ctx), awspkg.MetricOrdersPublished, map[string]string{
				"service_type": string(order.ServiceType),
			})
		}()
	}
	return order, nil
}

// CancelOrder is allowed for the owner while the order is pending_review,
// pending or accepted.
func (s *orderServiceImpl) CancelOrder(ctx context.Context, customerID, orderID int64) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, apperrors.Permission("Permission denied")
	}
	if !order.Status.CanTransitionTo(models.StatusCancelled) {
		return nil, apperrors.Conflict("The order cannot be cancelled")
	}

	return s.transition(ctx, repository.Transition{
		OrderID: orderID,
		From:    order.Status,
		Set:     map[string]interface{}{"status": models.StatusCancelled},
		Event: func(o *models.Order) events.Event {
			return events.OrderCancelled{OrderID: o.ID, CustomerID: o.CustomerID, ProviderID: o.ProviderID}
		},
	}, "The order cannot be cancelled")
}

func (s *orderServiceImpl) ListActiveOrders(ctx context.Context, customerID int64, page, limit int) (*OrderResponse, error) {
	return s.page(ctx, repository.ListFilter{
		CustomerID: &customerID,
		Statuses:   models.ActiveStatuses(),
	}, page, limit)
}

func (s *orderServiceImpl) GetCustomerOrder(ctx context.Context, customerID, orderID int64) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, apperrors.Permission("Permission denied")
	}
	return order, nil
}

func (s *orderServiceImpl) ListCustomerHistory(ctx context.Context, customerID int64, page, limit int) (*OrderResponse, error) {
	return s.page(ctx, repository.ListFilter{CustomerID: &customerID}, page, limit)
}
