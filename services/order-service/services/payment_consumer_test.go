package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingPaidRepo struct {
	*mockOrderRepo
	err error
}

func (r failingPaidRepo) MarkPaid(context.Context, int64) (bool, error) { return false, r.err }

func completed(orderID int64) (events.Envelope, events.Event) {
	ev := events.PaymentCompleted{PaymentID: 7, OrderID: orderID, CustomerID: 10, ProviderID: 20, Amount: events.MustMoney("150.00")}
	env, _ := events.New("payment-service", ev)
	return env, ev
}

func TestPaymentConsumer_MarksPaidOnce(t *testing.T) {
	repo := newMockRepo(&models.Order{ID: 1, PaymentStatus: models.PaymentUnpaid})
	pc := services.NewPaymentConsumer(newService(repo), zap.NewNop())

	env, ev := completed(1)
	require.NoError(t, pc.Handle(context.Background(), env, ev))
	assert.Equal(t, models.PaymentPaid, repo.orders[1].PaymentStatus)

	// redelivery is acked without changes
	require.NoError(t, pc.Handle(context.Background(), env, ev))
}

func TestPaymentConsumer_UnknownOrderAcked(t *testing.T) {
	pc := services.NewPaymentConsumer(newService(newMockRepo()), zap.NewNop())

	env, ev := completed(404)
	assert.NoError(t, pc.Handle(context.Background(), env, ev))
}

func TestPaymentConsumer_StorageErrorRequeues(t *testing.T) {
	repo := failingPaidRepo{mockOrderRepo: newMockRepo(), err: errors.New("db down")}
	pc := services.NewPaymentConsumer(services.NewOrderService(repo, nil, zap.NewNop()), zap.NewNop())

	env, ev := completed(1)
	assert.Error(t, pc.Handle(context.Background(), env, ev))
}

func TestPaymentConsumer_IgnoresOtherEvents(t *testing.T) {
	pc := services.NewPaymentConsumer(newService(newMockRepo()), zap.NewNop())

	ev := events.PaymentFailed{PaymentID: 1, OrderID: 1, Reason: "declined"}
	env, err := events.New("payment-service", ev)
	require.NoError(t, err)
	assert.NoError(t, pc.Handle(context.Background(), env, ev))
}

func TestPaymentSettlementSubscription(t *testing.T) {
	sub := services.PaymentSettlementSubscription()

	require.NoError(t, sub.Validate())
	assert.Equal(t, "order-service.payment-settlement", sub.Queue)
	assert.Equal(t, events.ExchangePayments, sub.Bindings[0].Exchange)
}
