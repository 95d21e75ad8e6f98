package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const errNotReviewable = "Only pending_review orders can be approved/rejected"

// ApproveOrder publishes (pending) or rejects (cancelled) an order under review.
func (s *orderServiceImpl) ApproveOrder(ctx context.Context, orderID int64, req *models.ApproveOrderRequest) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPendingReview {
		return nil, apperrors.Conflict(errNotReviewable)
	}

	if req.Approved {
		return s.transition(ctx, repository.Transition{
			OrderID: orderID,
			From:    models.StatusPendingReview,
			Set:     map[string]interface{}{"status": models.StatusPending},
			Event: func(o *models.Order) events.Event {
				return events.OrderApproved{OrderID: o.ID, CustomerID: o.CustomerID}
			},
		}, errNotReviewable)
	}

	if req.RejectReason == nil || strings.TrimSpace(*req.RejectReason) == "" {
		return nil, apperrors.Validation("Reject reason is required when rejecting an order")
	}
	reason := strings.TrimSpace(*req.RejectReason)
	return s.transition(ctx, repository.Transition{
		OrderID: orderID,
		From:    models.StatusPendingReview,
		Set:     map[string]interface{}{"status": models.StatusCancelled},
		Event: func(o *models.Order) events.Event {
			return events.OrderRejected{OrderID: o.ID, CustomerID: o.CustomerID, RejectReason: reason}
		},
	}, errNotReviewable)
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, status string, page, limit int) (*OrderResponse, error) {
	var filter repository.ListFilter
	if status != "" {
		st := models.Status(status)
		if !st.Valid() {
			return nil, apperrors.Validation("Invalid status: " + status)
		}
		filter.Statuses = []models.Status{st}
	}
	return s.page(ctx, filter, page, limit)
}

func (s *orderServiceImpl) ListPendingReview(ctx context.Context, page, limit int) (*OrderResponse, error) {
	return s.page(ctx, repository.ListFilter{
		Statuses: []models.Status{models.StatusPendingReview},
		OrderBy:  "created_at ASC",
	}, page, limit)
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.find(ctx, orderID)
}

// UpdateOrder applies an admin edit. A status change is still conditional
// on the status the edit was validated against and emits order.status_changed.
func (s *orderServiceImpl) UpdateOrder(ctx context.Context, orderID int64, req *models.AdminUpdateOrderRequest) (*models.Order, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	set, err := req.Changes(order)
	if err != nil {
		return nil, err
	}

	t := repository.Transition{OrderID: orderID, From: order.Status, Set: set}
	if _, ok := set["status"]; ok {
		t.Event = statusChanged(order.Status)
	}
	updated, err := s.transition(ctx, t, "The order was modified concurrently, please retry")
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order updated by admin", zap.Int64("order_id", orderID), zap.Int("fields", len(set)))
	return updated, nil
}

func (s *orderServiceImpl) DeleteOrder(ctx context.Context, orderID int64) error {
	if err := s.repo.SoftDelete(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errOrderNotFound
		}
		s.logger.Error("Failed to delete order", zap.Int64("order_id", orderID), zap.Error(err))
		return apperrors.Internal("Failed to delete order", err)
	}
	s.logger.Info("Order deleted", zap.Int64("order_id", orderID))
	return nil
}

// MarkPaid records settlement from payment.completed. A repeated delivery
// changes nothing and is not an error.
func (s *orderServiceImpl) MarkPaid(ctx context.Context, orderID int64) (bool, error) {
	changed, err := s.repo.MarkPaid(ctx, orderID)
	if err != nil {
		return false, apperrors.Internal("Failed to mark order paid", err)
	}
	return changed, nil
}
