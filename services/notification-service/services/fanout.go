package services

import (
	"fmt"

	"github.com/yashrajoria/freelance-marketplace/pkg/events"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/models"
)

// Notice is one inbox entry an event produces.
type Notice struct {
	RecipientType models.RecipientType
	RecipientID   int64
	OrderID       *int64
	Message       string
}

func customerNotice(customerID, orderID int64, format string, args ...interface{}) Notice {
	return Notice{RecipientType: models.RecipientCustomer, RecipientID: customerID, OrderID: &orderID, Message: fmt.Sprintf(format, args...)}
}

func providerNotice(providerID, orderID int64, format string, args ...interface{}) Notice {
	return Notice{RecipientType: models.RecipientProvider, RecipientID: providerID, OrderID: &orderID, Message: fmt.Sprintf(format, args...)}
}

// Notices maps an event to the inbox entries it produces. Events with no
// template produce none. Provider entries are only written once a provider is
// bound to the order.
func Notices(ev events.Event) []Notice {
	switch e := ev.(type) {
	case events.OrderCreated:
		return []Notice{
			customerNotice(e.CustomerID, e.OrderID, "You have successfully published the order: %d.", e.OrderID),
		}
	case events.OrderAccepted:
		return []Notice{
			customerNotice(e.CustomerID, e.OrderID, "Your order: %d has been accepted by provider: %d.", e.OrderID, e.ProviderID),
			providerNotice(e.ProviderID, e.OrderID, "You have successfully accepted the order: %d.", e.OrderID),
		}
	case events.OrderStatusChanged:
		out := []Notice{customerNotice(e.CustomerID, e.OrderID, "Order %d status updated to %s.", e.OrderID, e.NewStatus)}
		if e.ProviderID > 0 {
			out = append(out, providerNotice(e.ProviderID, e.OrderID, "Order %d status updated to %s.", e.OrderID, e.NewStatus))
		}
		return out
	case events.OrderCancelled:
		out := []Notice{customerNotice(e.CustomerID, e.OrderID, "You have successfully cancelled the order: %d.", e.OrderID)}
		if e.ProviderID != nil && *e.ProviderID > 0 {
			out = append(out, providerNotice(*e.ProviderID, e.OrderID, "Order %d has been cancelled by customer.", e.OrderID))
		}
		return out
	case events.OrderApproved:
		return []Notice{
			customerNotice(e.CustomerID, e.OrderID, "Your order %d has been approved by admin. It is now available for providers to accept.", e.OrderID),
		}
	case events.OrderRejected:
		return []Notice{
			customerNotice(e.CustomerID, e.OrderID, "Your order %d has been rejected by admin. Reason: %s", e.OrderID, e.RejectReason),
		}
	case events.PaymentCompleted:
		out := []Notice{customerNotice(e.CustomerID, e.OrderID, "Payment for order %d completed successfully.", e.OrderID)}
		if e.ProviderID > 0 {
			out = append(out, providerNotice(e.ProviderID, e.OrderID, "Payment for order %d received.", e.OrderID))
		}
		return out
	case events.PaymentFailed:
		return []Notice{
			customerNotice(e.CustomerID, e.OrderID, "Payment for order %d failed. Please try again.", e.OrderID),
		}
	case events.ReviewCreated:
		return []Notice{
			customerNotice(e.CustomerID, e.OrderID, "You have successfully reviewed order %d.", e.OrderID),
			providerNotice(e.ProviderID, e.OrderID, "Customer has reviewed your order %d with %d stars.", e.OrderID, e.Stars),
		}
	}
	return nil
}
