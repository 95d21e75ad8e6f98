package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	"github.com/yashrajoria/freelance-marketplace/pkg/outbox"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"

	"gorm.io/gorm"
)

// Source is the envelope source of every event this service writes.
const Source = "order-service"

// ErrStale means a conditional update matched no row: the order is gone or
// its status is no longer the expected one.
var ErrStale = errors.New("order changed concurrently")

// EventFunc builds the event for an order as it is after the write. A nil
// EventFunc, or one returning nil, writes no event.
type EventFunc func(o *models.Order) events.Event

// Transition is a conditional update guarded by the current status.
type Transition struct {
	OrderID int64
	From    models.Status
	Set     map[string]interface{}
	Event   EventFunc
}

// ListFilter selects orders for the paginated listings.
type ListFilter struct {
	CustomerID *int64
	ProviderID *int64
	Statuses   []models.Status
	Available  *models.AvailableFilter
	// OrderBy defaults to "created_at DESC".
	OrderBy string
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order, event EventFunc) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, page, limit int) ([]models.Order, int64, error)
	Transition(ctx context.Context, t Transition) (*models.Order, error)
	SoftDelete(ctx context.Context, id int64) error
	MarkPaid(ctx context.Context, id int64) (bool, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order and its event in one transaction.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order, event EventFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return enqueue(tx, order, event)
	})
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) List(ctx context.Context, filter ListFilter, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", *filter.ProviderID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if f := filter.Available; f != nil {
		if f.Location != nil {
			query = query.Where("location = ?", *f.Location)
		}
		if f.MinPrice != nil {
			query = query.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			query = query.Where("price <= ?", *f.MaxPrice)
		}
		if kw := strings.TrimSpace(f.Keyword); kw != "" {
			like := "%" + kw + "%"
			query = query.Where("(title ILIKE ? OR description ILIKE ?)", like, like)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	offset := (page - 1) * limit
	if err := query.
		Order(orderBy).
		Offset(offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// Transition applies t.Set only while the order is still in t.From, then
// writes the event for the updated row. ErrStale is returned when no row matched.
func (r *GormOrderRepository) Transition(ctx context.Context, t Transition) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", t.OrderID, t.From).
			Updates(t.Set)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStale
		}
		if err := tx.First(&order, t.OrderID).Error; err != nil {
			return err
		}
		return enqueue(tx, &order, t.Event)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkPaid flips payment_status to paid once. It reports whether a row changed.
func (r *GormOrderRepository) MarkPaid(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentUnpaid).
		Update("payment_status", models.PaymentPaid)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func enqueue(tx *gorm.DB, order *models.Order, event EventFunc) error {
	if event == nil {
		return nil
	}
	ev := event(order)
	if ev == nil {
		return nil
	}
	_, err := outbox.Enqueue(tx, Source, ev)
	return err
}
