package repository

import (
	"context"
	"errors"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	"github.com/yashrajoria/freelance-marketplace/pkg/outbox"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const Source = "payment-service"

// ErrStale means the payment left the pending state before this write.
var ErrStale = errors.New("payment is no longer pending")

// PaymentEventFunc builds the event for a payment as it is after the write.
type PaymentEventFunc func(p *models.Payment) events.Event

type PaymentRepository interface {
	FindCompletedByOrder(ctx context.Context, orderID int64) (*models.Payment, error)
	// FindForOrder returns the completed payment of the order, or its most
	// recent attempt when none completed.
	FindForOrder(ctx context.Context, orderID int64) (*models.Payment, error)
	ListByCustomer(ctx context.Context, customerID int64, page, limit int) ([]models.Payment, int64, error)

	CreatePending(ctx context.Context, payment *models.Payment, event PaymentEventFunc) error
	Complete(ctx context.Context, paymentID int64, transactionID uuid.UUID, ledger *models.Transaction, event PaymentEventFunc) (*models.Payment, error)
	MarkFailed(ctx context.Context, paymentID int64, reason string, event PaymentEventFunc) error

	FindRefundByOrder(ctx context.Context, orderID int64) (*models.Refund, error)
	CreateRefund(ctx context.Context, refund *models.Refund, ledger *models.Transaction, event func(r *models.Refund) events.Event) error
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) FindCompletedByOrder(ctx context.Context, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, models.PaymentCompleted).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormPaymentRepo) FindForOrder(ctx context.Context, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("(status = 'completed') DESC, id DESC").
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormPaymentRepo) ListByCustomer(ctx context.Context, customerID int64, page, limit int) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("customer_id = ?", customerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// CreatePending inserts the attempt with payment.initiated.
func (r *gormPaymentRepo) CreatePending(ctx context.Context, payment *models.Payment, event PaymentEventFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return enqueue(tx, event(payment))
	})
}

// Complete settles a pending payment, appends the ledger row and writes
// payment.completed. A second completed payment for the same order violates
// the partial unique index and surfaces as gorm.ErrDuplicatedKey.
func (r *gormPaymentRepo) Complete(ctx context.Context, paymentID int64, transactionID uuid.UUID, ledger *models.Transaction, event PaymentEventFunc) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", paymentID, models.PaymentPending).
			Updates(map[string]interface{}{
				"status":         models.PaymentCompleted,
				"transaction_id": transactionID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStale
		}
		if err := tx.First(&payment, paymentID).Error; err != nil {
			return err
		}
		ledger.ReferenceID = payment.ID
		if err := tx.Create(ledger).Error; err != nil {
			return err
		}
		return enqueue(tx, event(&payment))
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormPaymentRepo) MarkFailed(ctx context.Context, paymentID int64, reason string, event PaymentEventFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", paymentID, models.PaymentPending).
			Updates(map[string]interface{}{
				"status":         models.PaymentFailed,
				"failure_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStale
		}
		var payment models.Payment
		if err := tx.First(&payment, paymentID).Error; err != nil {
			return err
		}
		return enqueue(tx, event(&payment))
	})
}

func (r *gormPaymentRepo) FindRefundByOrder(ctx context.Context, orderID int64) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&refund).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *gormPaymentRepo) CreateRefund(ctx context.Context, refund *models.Refund, ledger *models.Transaction, event func(r *models.Refund) events.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(refund).Error; err != nil {
			return err
		}
		ledger.ReferenceID = refund.ID
		if err := tx.Create(ledger).Error; err != nil {
			return err
		}
		return enqueue(tx, event(refund))
	})
}

func enqueue(tx *gorm.DB, ev events.Event) error {
	if ev == nil {
		return nil
	}
	_, err := outbox.Enqueue(tx, Source, ev)
	return err
}
