package services

import (
	"context"
	"errors"

	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"
	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderService holds the order lifecycle. All transitions are conditional on
// the status read before them; a concurrent writer turns into Conflict.
type OrderService interface {
	// customer
	PublishOrder(ctx context.Context, customerID int64, req *models.PublishOrderRequest) (*models.Order, error)
	CancelOrder(ctx context.Context, customerID, orderID int64) (*models.Order, error)
	ListActiveOrders(ctx context.Context, customerID int64, page, limit int) (*OrderResponse, error)
	GetCustomerOrder(ctx context.Context, customerID, orderID int64) (*models.Order, error)
	ListCustomerHistory(ctx context.Context, customerID int64, page, limit int) (*OrderResponse, error)

	// provider
	ListAvailableOrders(ctx context.Context, filter models.AvailableFilter, page, limit int) (*OrderResponse, error)
	GetAvailableOrder(ctx context.Context, orderID int64) (*models.Order, error)
	AcceptOrder(ctx context.Context, providerID, orderID int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, providerID, orderID int64, newStatus models.Status) (*models.Order, error)
	GetProviderOrder(ctx context.Context, providerID, orderID int64) (*models.Order, error)
	ListProviderHistory(ctx context.Context, providerID int64, page, limit int) (*OrderResponse, error)

	// admin
	ApproveOrder(ctx context.Context, orderID int64, req *models.ApproveOrderRequest) (*models.Order, error)
	ListOrders(ctx context.Context, status string, page, limit int) (*OrderResponse, error)
	ListPendingReview(ctx context.Context, page, limit int) (*OrderResponse, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID int64, req *models.AdminUpdateOrderRequest) (*models.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error

	// payment settlement
	MarkPaid(ctx context.Context, orderID int64) (bool, error)
}

type orderServiceImpl struct {
	repo    repository.OrderRepository
	metrics *awspkg.MetricsClient
	logger  *zap.Logger
}

func NewOrderService(repo repository.OrderRepository, metrics *awspkg.MetricsClient, logger *zap.Logger) OrderService {
	return &orderServiceImpl{repo: repo, metrics: metrics, logger: logger}
}

var errOrderNotFound = apperrors.NotFound("Order not found")

func (s *orderServiceImpl) find(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errOrderNotFound
		}
		s.logger.Error("Failed to load order", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	return order, nil
}

// transition runs a conditional update. A stale write is re-read so the
// caller sees NotFound when the order vanished and conflict otherwise.
func (s *orderServiceImpl) transition(ctx context.Context, t repository.Transition, conflict string) (*models.Order, error) {
	updated, err := s.repo.Transition(ctx, t)
	if err == nil {
		s.recordTransition(ctx, t.From, updated.Status)
		return updated, nil
	}
	if errors.Is(err, repository.ErrStale) {
		if _, ferr := s.find(ctx, t.OrderID); ferr != nil {
			return nil, ferr
		}
		s.logger.Info("Order transition lost a race",
			zap.Int64("order_id", t.OrderID),
			zap.String("from", string(t.From)),
		)
		return nil, apperrors.Conflict(conflict)
	}
	s.logger.Error("Order transition failed", zap.Int64("order_id", t.OrderID), zap.Error(err))
	return nil, apperrors.Internal("Failed to update order", err)
}

func (s *orderServiceImpl) recordTransition(ctx context.Context, from, to models.Status) {
	if !s.metrics.IsEnabled() {
		return
	}
	go func() {
		_ = s.metrics.RecordCount(context.WithoutCancel(ctx), awspkg.MetricOrderTransitions, map[string]string{
			"from": string(from),
			"to":   string(to),
		})
	}()
}

func (s *orderServiceImpl) page(ctx context.Context, filter repository.ListFilter, page, limit int) (*OrderResponse, error) {
	orders, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

func providerOrZero(o *models.Order) int64 {
	if o.ProviderID == nil {
		return 0
	}
	return *o.ProviderID
}

func statusChanged(old models.Status) repository.EventFunc {
	return func(o *models.Order) events.Event {
		return events.OrderStatusChanged{
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			ProviderID: providerOrZero(o),
			OldStatus:  string(old),
			NewStatus:  string(o.Status),
		}
	}
}
