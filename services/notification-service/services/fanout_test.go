package services_test

import (
	"testing"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type want struct {
	rtype   models.RecipientType
	id      int64
	message string
}

func ptr[T any](v T) *T { return &v }

func TestNotices_Templates(t *testing.T) {
	tests := []struct {
		name string
		ev   events.Event
		want []want
	}{
		{"created", events.OrderCreated{OrderID: 1, CustomerID: 10}, []want{
			{models.RecipientCustomer, 10, "You have successfully published the order: 1."},
		}},
		{"accepted", events.OrderAccepted{OrderID: 1, CustomerID: 10, ProviderID: 20}, []want{
			{models.RecipientCustomer, 10, "Your order: 1 has been accepted by provider: 20."},
			{models.RecipientProvider, 20, "You have successfully accepted the order: 1."},
		}},
		{"status changed", events.OrderStatusChanged{OrderID: 1, CustomerID: 10, ProviderID: 20, OldStatus: "accepted", NewStatus: "in_progress"}, []want{
			{models.RecipientCustomer, 10, "Order 1 status updated to in_progress."},
			{models.RecipientProvider, 20, "Order 1 status updated to in_progress."},
		}},
		{"cancelled before accept", events.OrderCancelled{OrderID: 1, CustomerID: 10}, []want{
			{models.RecipientCustomer, 10, "You have successfully cancelled the order: 1."},
		}},
		{"cancelled after accept", events.OrderCancelled{OrderID: 1, CustomerID: 10, ProviderID: ptr(int64(20))}, []want{
			{models.RecipientCustomer, 10, "You have successfully cancelled the order: 1."},
			{models.RecipientProvider, 20, "Order 1 has been cancelled by customer."},
		}},
		{"approved", events.OrderApproved{OrderID: 1, CustomerID: 10}, []want{
			{models.RecipientCustomer, 10, "Your order 1 has been approved by admin. It is now available for providers to accept."},
		}},
		{"rejected", events.OrderRejected{OrderID: 1, CustomerID: 10, RejectReason: "spam"}, []want{
			{models.RecipientCustomer, 10, "Your order 1 has been rejected by admin. Reason: spam"},
		}},
		{"payment completed", events.PaymentCompleted{OrderID: 1, CustomerID: 10, ProviderID: 20}, []want{
			{models.RecipientCustomer, 10, "Payment for order 1 completed successfully."},
			{models.RecipientProvider, 20, "Payment for order 1 received."},
		}},
		{"payment failed", events.PaymentFailed{OrderID: 1, CustomerID: 10}, []want{
			{models.RecipientCustomer, 10, "Payment for order 1 failed. Please try again."},
		}},
		{"review created", events.ReviewCreated{OrderID: 1, CustomerID: 10, ProviderID: 20, Stars: 4}, []want{
			{models.RecipientCustomer, 10, "You have successfully reviewed order 1."},
			{models.RecipientProvider, 20, "Customer has reviewed your order 1 with 4 stars."},
		}},
		{"no template", events.RatingUpdated{ProviderID: 20}, nil},
		{"payment initiated", events.PaymentInitiated{OrderID: 1, CustomerID: 10}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.Notices(tt.ev)

			require.Len(t, got, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w.rtype, got[i].RecipientType)
				assert.Equal(t, w.id, got[i].RecipientID)
				assert.Equal(t, w.message, got[i].Message)
				require.NotNil(t, got[i].OrderID)
				assert.Equal(t, int64(1), *got[i].OrderID)
			}
		})
	}
}
