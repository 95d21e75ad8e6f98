package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/orderclient"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/repository"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockOrders struct {
	order *orderclient.Order
	err   error
	got   orderclient.Caller
}

func (m *mockOrders) GetCustomerOrder(_ context.Context, caller orderclient.Caller, _ int64) (*orderclient.Order, error) {
	m.got = caller
	return m.order, m.err
}

type mockPaymentRepo struct {
	payments []*models.Payment
	refunds  []*models.Refund
	ledger   []*models.Transaction
	emitted  []events.Event

	completeErr error
	refundErr   error
}

func (m *mockPaymentRepo) FindCompletedByOrder(_ context.Context, orderID int64) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.OrderID == orderID && p.Status == models.PaymentCompleted {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) FindForOrder(ctx context.Context, orderID int64) (*models.Payment, error) {
	if p, err := m.FindCompletedByOrder(ctx, orderID); err == nil {
		return p, nil
	}
	for i := len(m.payments) - 1; i >= 0; i-- {
		if m.payments[i].OrderID == orderID {
			return m.payments[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) ListByCustomer(_ context.Context, customerID int64, _, _ int) ([]models.Payment, int64, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if p.CustomerID == customerID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockPaymentRepo) CreatePending(_ context.Context, p *models.Payment, event repository.PaymentEventFunc) error {
	p.ID = int64(len(m.payments) + 1)
	m.payments = append(m.payments, p)
	m.emitted = append(m.emitted, event(p))
	return nil
}

func (m *mockPaymentRepo) Complete(_ context.Context, paymentID int64, txID uuid.UUID, ledger *models.Transaction, event repository.PaymentEventFunc) (*models.Payment, error) {
	if m.completeErr != nil {
		return nil, m.completeErr
	}
	p := m.payments[paymentID-1]
	if p.Status != models.PaymentPending {
		return nil, repository.ErrStale
	}
	p.Status = models.PaymentCompleted
	p.TransactionID = &txID
	ledger.ReferenceID = p.ID
	m.ledger = append(m.ledger, ledger)
	m.emitted = append(m.emitted, event(p))
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepo) MarkFailed(_ context.Context, paymentID int64, reason string, event repository.PaymentEventFunc) error {
	p := m.payments[paymentID-1]
	p.Status = models.PaymentFailed
	p.FailureReason = reason
	m.emitted = append(m.emitted, event(p))
	return nil
}

func (m *mockPaymentRepo) FindRefundByOrder(_ context.Context, orderID int64) (*models.Refund, error) {
	for _, r := range m.refunds {
		if r.OrderID == orderID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) CreateRefund(_ context.Context, r *models.Refund, ledger *models.Transaction, event func(*models.Refund) events.Event) error {
	if m.refundErr != nil {
		return m.refundErr
	}
	r.ID = int64(len(m.refunds) + 1)
	m.refunds = append(m.refunds, r)
	m.ledger = append(m.ledger, ledger)
	m.emitted = append(m.emitted, event(r))
	return nil
}

func provider(id int64) *int64 { return &id }

func completedOrder() *orderclient.Order {
	return &orderclient.Order{
		ID: 1, CustomerID: 10, ProviderID: provider(20),
		Status: "completed", PaymentStatus: "unpaid", Price: decimal.NewFromInt(150),
	}
}

var customer = orderclient.Caller{UserID: 10, Role: 1, Bearer: "tok"}

func TestPayOrder_Success(t *testing.T) {
	repo := &mockPaymentRepo{}
	orders := &mockOrders{order: completedOrder()}
	svc := services.NewPaymentService(repo, orders, nil, zap.NewNop())

	resp, err := svc.PayOrder(context.Background(), customer, 1)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, resp.Status)
	assert.Equal(t, "150.00", resp.Amount.StringFixed(2))
	assert.NotEmpty(t, resp.TransactionID)
	assert.Equal(t, "tok", orders.got.Bearer)

	require.Len(t, repo.emitted, 2)
	initiated, ok := repo.emitted[0].(events.PaymentInitiated)
	require.True(t, ok)
	assert.Equal(t, int64(1), initiated.OrderID)
	done, ok := repo.emitted[1].(events.PaymentCompleted)
	require.True(t, ok)
	assert.Equal(t, int64(20), done.ProviderID)
	assert.Equal(t, resp.TransactionID, done.TransactionID)

	require.Len(t, repo.ledger, 1)
	assert.Equal(t, models.TransactionPayment, repo.ledger[0].TransactionType)
	assert.Equal(t, resp.PaymentID, repo.ledger[0].ReferenceID)
}

func TestPayOrder_OrderStates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *orderclient.Order)
		msg    string
	}{
		{"not completed", func(o *orderclient.Order) { o.Status = "in_progress" }, "Order not completed, cannot pay"},
		{"already paid", func(o *orderclient.Order) { o.PaymentStatus = "paid" }, "Order cannot be paid, payment status must be unpaid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := completedOrder()
			tt.mutate(o)
			repo := &mockPaymentRepo{}
			svc := services.NewPaymentService(repo, &mockOrders{order: o}, nil, zap.NewNop())

			_, err := svc.PayOrder(context.Background(), customer, 1)

			assert.ErrorIs(t, err, apperrors.Conflict(tt.msg))
			assert.Empty(t, repo.emitted)
		})
	}
}

func TestPayOrder_UpstreamErrorsPassThrough(t *testing.T) {
	for _, upstream := range []error{
		apperrors.NotFound("Order not found"),
		apperrors.Permission("Permission denied"),
		apperrors.Upstream("Order service unavailable", errors.New("timeout")),
	} {
		svc := services.NewPaymentService(&mockPaymentRepo{}, &mockOrders{err: upstream}, nil, zap.NewNop())

		_, err := svc.PayOrder(context.Background(), customer, 1)

		assert.Equal(t, apperrors.KindOf(upstream), apperrors.KindOf(err))
	}
}

func TestPayOrder_ExistingCompletedPayment(t *testing.T) {
	repo := &mockPaymentRepo{payments: []*models.Payment{{ID: 1, OrderID: 1, CustomerID: 10, Status: models.PaymentCompleted}}}
	svc := services.NewPaymentService(repo, &mockOrders{order: completedOrder()}, nil, zap.NewNop())

	_, err := svc.PayOrder(context.Background(), customer, 1)

	assert.ErrorIs(t, err, apperrors.Conflict("Order already paid"))
	assert.Empty(t, repo.emitted)
}

func TestPayOrder_ConcurrentSettlementLoses(t *testing.T) {
	repo := &mockPaymentRepo{completeErr: gorm.ErrDuplicatedKey}
	svc := services.NewPaymentService(repo, &mockOrders{order: completedOrder()}, nil, zap.NewNop())

	_, err := svc.PayOrder(context.Background(), customer, 1)

	assert.ErrorIs(t, err, apperrors.Conflict("Order already paid"))
	require.Len(t, repo.emitted, 2)
	failed, ok := repo.emitted[1].(events.PaymentFailed)
	require.True(t, ok)
	assert.Equal(t, "order already paid", failed.Reason)
	assert.Equal(t, models.PaymentFailed, repo.payments[0].Status)
}

func TestPayOrder_SettlementErrorMarksFailed(t *testing.T) {
	repo := &mockPaymentRepo{completeErr: errors.New("connection reset")}
	svc := services.NewPaymentService(repo, &mockOrders{order: completedOrder()}, nil, zap.NewNop())

	_, err := svc.PayOrder(context.Background(), customer, 1)

	assert.ErrorIs(t, err, apperrors.ErrInternal)
	assert.Equal(t, models.PaymentFailed, repo.payments[0].Status)
}

func TestRefund_Success(t *testing.T) {
	repo := &mockPaymentRepo{payments: []*models.Payment{{
		ID: 1, OrderID: 1, CustomerID: 10, Status: models.PaymentCompleted, Amount: decimal.NewFromInt(150),
	}}}
	svc := services.NewPaymentService(repo, &mockOrders{}, nil, zap.NewNop())

	resp, err := svc.Refund(context.Background(), 10, 1, " changed my mind ")

	require.NoError(t, err)
	assert.Equal(t, models.RefundCompleted, resp.Status)
	assert.Equal(t, "changed my mind", repo.refunds[0].Reason)
	assert.Equal(t, models.TransactionRefund, repo.ledger[0].TransactionType)
	assert.Equal(t, []events.Event{events.RefundProcessed{
		RefundID: 1, PaymentID: 1, OrderID: 1, CustomerID: 10,
		Amount: events.NewMoney(decimal.NewFromInt(150)), Reason: "changed my mind",
	}}, repo.emitted)
}

func TestRefund_Rules(t *testing.T) {
	ctx := context.Background()
	repo := &mockPaymentRepo{payments: []*models.Payment{
		{ID: 1, OrderID: 1, CustomerID: 10, Status: models.PaymentCompleted},
		{ID: 2, OrderID: 2, CustomerID: 10, Status: models.PaymentFailed},
	}}
	svc := services.NewPaymentService(repo, &mockOrders{}, nil, zap.NewNop())

	_, err := svc.Refund(ctx, 10, 99, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Refund(ctx, 11, 1, "")
	assert.ErrorIs(t, err, apperrors.ErrPermission)

	_, err = svc.Refund(ctx, 10, 2, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Refund(ctx, 10, 1, "")
	require.NoError(t, err)
	_, err = svc.Refund(ctx, 10, 1, "")
	assert.ErrorIs(t, err, apperrors.Conflict("Refund already processed"))
}

func TestRefund_DuplicateKeyIsConflict(t *testing.T) {
	repo := &mockPaymentRepo{
		payments:  []*models.Payment{{ID: 1, OrderID: 1, CustomerID: 10, Status: models.PaymentCompleted}},
		refundErr: gorm.ErrDuplicatedKey,
	}
	svc := services.NewPaymentService(repo, &mockOrders{}, nil, zap.NewNop())

	_, err := svc.Refund(context.Background(), 10, 1, "")

	assert.ErrorIs(t, err, apperrors.Conflict("Refund already processed"))
}

func TestListMyPayments(t *testing.T) {
	repo := &mockPaymentRepo{payments: []*models.Payment{
		{ID: 1, OrderID: 1, CustomerID: 10}, {ID: 2, OrderID: 2, CustomerID: 11},
	}}
	svc := services.NewPaymentService(repo, &mockOrders{}, nil, zap.NewNop())

	list, err := svc.ListMyPayments(context.Background(), 10, 1, 10)

	require.NoError(t, err)
	assert.Len(t, list.Payments, 1)
	assert.False(t, list.Meta.HasMore)
}
