package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"
	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/orderclient"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	errAlreadyPaid     = "Order already paid"
	errAlreadyRefunded = "Refund already processed"
)

type PaymentList struct {
	Payments []models.Payment `json:"payments"`
	Meta     MetaData         `json:"meta"`
}

type MetaData struct {
	Page          int   `json:"page"`
	Limit         int   `json:"limit"`
	TotalPayments int64 `json:"total_payments"`
	HasMore       bool  `json:"has_more"`
}

// PaymentService settles orders with simulated payments.
type PaymentService interface {
	PayOrder(ctx context.Context, caller orderclient.Caller, orderID int64) (*models.PayOrderResponse, error)
	Refund(ctx context.Context, customerID, orderID int64, reason string) (*models.RefundResponse, error)
	ListMyPayments(ctx context.Context, customerID int64, page, limit int) (*PaymentList, error)
	GetPaymentForOrder(ctx context.Context, customerID, orderID int64) (*models.Payment, error)
}

type paymentServiceImpl struct {
	repo    repository.PaymentRepository
	orders  orderclient.Client
	metrics *awspkg.MetricsClient
	logger  *zap.Logger
}

func NewPaymentService(repo repository.PaymentRepository, orders orderclient.Client, metrics *awspkg.MetricsClient, logger *zap.Logger) PaymentService {
	return &paymentServiceImpl{repo: repo, orders: orders, metrics: metrics, logger: logger}
}

// PayOrder pays a completed, unpaid order. The attempt is written pending with
// payment.initiated, then settled in a second transaction that writes
// payment.completed; if settlement fails the attempt becomes failed.
func (s *paymentServiceImpl) PayOrder(ctx context.Context, caller orderclient.Caller, orderID int64) (*models.PayOrderResponse, error) {
	order, err := s.orders.GetCustomerOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != caller.UserID {
		return nil, apperrors.Permission("Permission denied")
	}
	if order.Status != "completed" {
		return nil, apperrors.Conflict("Order not completed, cannot pay")
	}
	if order.PaymentStatus != "unpaid" {
		return nil, apperrors.Conflict("Order cannot be paid, payment status must be unpaid")
	}

	if _, err := s.repo.FindCompletedByOrder(ctx, orderID); err == nil {
		return nil, apperrors.Conflict(errAlreadyPaid)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("Failed to check existing payments", err)
	}

	payment := &models.Payment{
		OrderID:       orderID,
		CustomerID:    caller.UserID,
		ProviderID:    order.ProviderID,
		Amount:        order.Price.Round(2),
		PaymentMethod: models.MethodSimulated,
		Status:        models.PaymentPending,
	}
	err = s.repo.CreatePending(ctx, payment, func(p *models.Payment) events.Event {
		return events.PaymentInitiated{
			PaymentID:  p.ID,
			OrderID:    p.OrderID,
			CustomerID: p.CustomerID,
			Amount:     events.NewMoney(p.Amount),
		}
	})
	if err != nil {
		s.logger.Error("Failed to create payment", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, apperrors.Internal("Failed to create payment", err)
	}

	completed, err := s.settle(ctx, payment)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment completed",
		zap.Int64("payment_id", completed.ID),
		zap.Int64("order_id", orderID),
		zap.String("amount", completed.Amount.StringFixed(2)),
	)
	if s.metrics.IsEnabled() {
		go func() {
			_ = s.metrics.RecordCount(context.WithoutCancel(ctx), awspkg.MetricPaymentsCompleted, map[string]string{
				"method": string(completed.PaymentMethod),
			})
		}()
	}

	resp := &models.PayOrderResponse{
		PaymentID: completed.ID,
		OrderID:   orderID,
		Amount:    completed.Amount,
		Status:    completed.Status,
		Message:   fmt.Sprintf("Payment for order %d completed successfully.", orderID),
	}
	if completed.TransactionID != nil {
		resp.TransactionID = completed.TransactionID.String()
	}
	return resp, nil
}

func (s *paymentServiceImpl) settle(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	txID := uuid.New()
	ledger := &models.Transaction{
		UserID:          payment.CustomerID,
		TransactionType: models.TransactionPayment,
		Amount:          payment.Amount,
		Description:     fmt.Sprintf("Payment for order %d (simulated)", payment.OrderID),
	}
	completed, err := s.repo.Complete(ctx, payment.ID, txID, ledger, func(p *models.Payment) events.Event {
		return events.PaymentCompleted{
			PaymentID:     p.ID,
			OrderID:       p.OrderID,
			CustomerID:    p.CustomerID,
			ProviderID:    derefOrZero(p.ProviderID),
			Amount:        events.NewMoney(p.Amount),
			TransactionID: txID.String(),
		}
	})
	if err == nil {
		return completed, nil
	}

	reason := "settlement failed"
	result := apperrors.Internal("Payment failed", err)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		reason = "order already paid"
		result = apperrors.Conflict(errAlreadyPaid)
	}
	s.logger.Warn("Payment settlement failed",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("order_id", payment.OrderID),
		zap.Error(err),
	)

	ferr := s.repo.MarkFailed(context.WithoutCancel(ctx), payment.ID, reason, func(p *models.Payment) events.Event {
		return events.PaymentFailed{
			PaymentID:  p.ID,
			OrderID:    p.OrderID,
			CustomerID: p.CustomerID,
			Amount:     events.NewMoney(p.Amount),
			Reason:     reason,
		}
	})
	if ferr != nil {
		s.logger.Error("Failed to mark payment failed", zap.Int64("payment_id", payment.ID), zap.Error(ferr))
	}
	return nil, result
}

// Refund records a simulated refund of the order's completed payment.
func (s *paymentServiceImpl) Refund(ctx context.Context, customerID, orderID int64, reason string) (*models.RefundResponse, error) {
	payment, err := s.paymentFor(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentCompleted {
		return nil, apperrors.Conflict("Only completed payments can be refunded")
	}
	if _, err := s.repo.FindRefundByOrder(ctx, orderID); err == nil {
		return nil, apperrors.Conflict(errAlreadyRefunded)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("Failed to check existing refunds", err)
	}

	reason = strings.TrimSpace(reason)
	refund := &models.Refund{
		PaymentID:  payment.ID,
		OrderID:    orderID,
		CustomerID: customerID,
		Amount:     payment.Amount,
		Status:     models.RefundCompleted,
		Reason:     reason,
	}
	ledger := &models.Transaction{
		UserID:          customerID,
		TransactionType: models.TransactionRefund,
		Amount:          payment.Amount,
		Description:     fmt.Sprintf("Refund for order %d (simulated)", orderID),
	}
	err = s.repo.CreateRefund(ctx, refund, ledger, func(r *models.Refund) events.Event {
		return events.RefundProcessed{
			RefundID:   r.ID,
			PaymentID:  r.PaymentID,
			OrderID:    r.OrderID,
			CustomerID: r.CustomerID,
			Amount:     events.NewMoney(r.Amount),
			Reason:     r.Reason,
		}
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict(errAlreadyRefunded)
		}
		s.logger.Error("Failed to record refund", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, apperrors.Internal("Failed to process refund", err)
	}

	s.logger.Info("Refund processed", zap.Int64("refund_id", refund.ID), zap.Int64("order_id", orderID))
	if s.metrics.IsEnabled() {
		go func() {
			_ = s.metrics.RecordCount(context.WithoutCancel(ctx), awspkg.MetricRefundsProcessed, nil)
		}()
	}
	return &models.RefundResponse{
		RefundID: refund.ID,
		OrderID:  orderID,
		Amount:   refund.Amount,
		Status:   refund.Status,
		Message:  fmt.Sprintf("Refund of %s for order %d processed (simulated).", refund.Amount.StringFixed(2), orderID),
	}, nil
}

func (s *paymentServiceImpl) ListMyPayments(ctx context.Context, customerID int64, page, limit int) (*PaymentList, error) {
	payments, total, err := s.repo.ListByCustomer(ctx, customerID, page, limit)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch payments", err)
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return &PaymentList{
		Payments: payments,
		Meta: MetaData{
			Page:          page,
			Limit:         limit,
			TotalPayments: total,
			HasMore:       total > int64(page*limit),
		},
	}, nil
}

func (s *paymentServiceImpl) GetPaymentForOrder(ctx context.Context, customerID, orderID int64) (*models.Payment, error) {
	return s.paymentFor(ctx, customerID, orderID)
}

func (s *paymentServiceImpl) paymentFor(ctx context.Context, customerID, orderID int64) (*models.Payment, error) {
	payment, err := s.repo.FindForOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Payment not found")
		}
		return nil, apperrors.Internal("Failed to fetch payment", err)
	}
	if payment.CustomerID != customerID {
		return nil, apperrors.Permission("Permission denied")
	}
	return payment, nil
}

func derefOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
