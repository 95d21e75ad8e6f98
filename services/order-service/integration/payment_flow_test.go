//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/yashrajoria/freelance-marketplace/pkg/broker"
	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	"github.com/yashrajoria/freelance-marketplace/pkg/outbox"
	"github.com/yashrajoria/freelance-marketplace/services/common/orderclient"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/repository"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/services"
	paymentmodels "github.com/yashrajoria/freelance-marketplace/services/payment-service/models"
	paymentrepo "github.com/yashrajoria/freelance-marketplace/services/payment-service/repository"
	paymentservices "github.com/yashrajoria/freelance-marketplace/services/payment-service/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// localOrders answers payment-service order lookups from the order service
// in-process instead of over HTTP.
type localOrders struct {
	svc services.OrderService
}

func (l localOrders) GetCustomerOrder(ctx context.Context, caller orderclient.Caller, orderID int64) (*orderclient.Order, error) {
	o, err := l.svc.GetCustomerOrder(ctx, caller.UserID, orderID)
	if err != nil {
		return nil, err
	}
	return &orderclient.Order{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		ProviderID:    o.ProviderID,
		Title:         o.Title,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Price:         o.Price,
	}, nil
}

func TestPaidOrderFlowOverMemoryBus(t *testing.T) {
	db := startPostgres(t,
		&models.Order{}, &paymentmodels.Payment{}, &paymentmodels.Transaction{}, &paymentmodels.Refund{}, &outbox.Record{})
	ctx := t.Context()
	logger := zap.NewNop()

	orders := services.NewOrderService(repository.NewGormOrderRepository(db), nil, logger)
	payments := paymentservices.NewPaymentService(paymentrepo.NewGormPaymentRepo(db), localOrders{svc: orders}, nil, logger)

	bus := broker.NewMemory(logger)
	t.Cleanup(func() { _ = bus.Close() })
	require.NoError(t, bus.Declare(ctx, services.PaymentSettlementSubscription()))

	consumerCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		services.NewPaymentConsumer(orders, logger).Start(consumerCtx, bus)
	}()
	t.Cleanup(func() {
		stop()
		wg.Wait()
	})

	const customerID, providerID = int64(10), int64(20)
	order, err := orders.PublishOrder(ctx, customerID, &models.PublishOrderRequest{
		Title:       "Fix my sink",
		ServiceType: models.ServiceCleaningRepair,
		Price:       decimal.NewFromInt(150),
		Location:    models.LocationNorth,
	})
	require.NoError(t, err)
	_, err = orders.ApproveOrder(ctx, order.ID, &models.ApproveOrderRequest{Approved: true})
	require.NoError(t, err)
	_, err = orders.AcceptOrder(ctx, providerID, order.ID)
	require.NoError(t, err)
	_, err = orders.UpdateOrderStatus(ctx, providerID, order.ID, models.StatusInProgress)
	require.NoError(t, err)
	_, err = orders.UpdateOrderStatus(ctx, providerID, order.ID, models.StatusCompleted)
	require.NoError(t, err)

	paid, err := payments.PayOrder(ctx, orderclient.Caller{UserID: customerID, Role: 1}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, paymentmodels.PaymentCompleted, paid.Status)
	assert.True(t, paid.Amount.Equal(decimal.RequireFromString("150.00")))

	stored, err := orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentUnpaid, stored.PaymentStatus, "order must not flip before the outbox is relayed")

	relay := outbox.NewRelay(db, bus, logger, outbox.RelayConfig{BatchSize: 50})
	n, err := relay.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Positive(t, n)

	require.Eventually(t, func() bool {
		o, err := orders.GetOrder(ctx, order.ID)
		return err == nil && o.PaymentStatus == models.PaymentPaid
	}, 5*time.Second, 20*time.Millisecond)

	var paymentKeys []string
	for _, msg := range bus.Published() {
		if msg.Exchange == events.ExchangePayments {
			paymentKeys = append(paymentKeys, msg.RoutingKey)
		}
	}
	assert.Contains(t, paymentKeys, string(events.PaymentInitiatedType))
	assert.Contains(t, paymentKeys, string(events.PaymentCompletedType))
}
