package events

const (
	OrderCreatedType       Type = "order.created"
	OrderApprovedType      Type = "order.approved"
	OrderRejectedType      Type = "order.rejected"
	OrderAcceptedType      Type = "order.accepted"
	OrderStatusChangedType Type = "order.status_changed"
	OrderCancelledType     Type = "order.cancelled"
)

type OrderCreated struct {
	OrderID     int64  `json:"order_id"`
	CustomerID  int64  `json:"customer_id"`
	Title       string `json:"title"`
	Price       Money  `json:"price"`
	Location    string `json:"location"`
	ServiceType string `json:"service_type"`
}

func (OrderCreated) EventType() Type      { return OrderCreatedType }
func (OrderCreated) Exchange() string     { return ExchangeOrders }
func (e OrderCreated) AggregateID() int64 { return e.OrderID }

type OrderApproved struct {
	OrderID    int64 `json:"order_id"`
	CustomerID int64 `json:"customer_id"`
}

func (OrderApproved) EventType() Type      { return OrderApprovedType }
func (OrderApproved) Exchange() string     { return ExchangeOrders }
func (e OrderApproved) AggregateID() int64 { return e.OrderID }

type OrderRejected struct {
	OrderID      int64  `json:"order_id"`
	CustomerID   int64  `json:"customer_id"`
	RejectReason string `json:"reject_reason"`
}

func (OrderRejected) EventType() Type      { return OrderRejectedType }
func (OrderRejected) Exchange() string     { return ExchangeOrders }
func (e OrderRejected) AggregateID() int64 { return e.OrderID }

type OrderAccepted struct {
	OrderID    int64 `json:"order_id"`
	CustomerID int64 `json:"customer_id"`
	ProviderID int64 `json:"provider_id"`
}

func (OrderAccepted) EventType() Type      { return OrderAcceptedType }
func (OrderAccepted) Exchange() string     { return ExchangeOrders }
func (e OrderAccepted) AggregateID() int64 { return e.OrderID }

type OrderStatusChanged struct {
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	ProviderID int64  `json:"provider_id"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
}

func (OrderStatusChanged) EventType() Type      { return OrderStatusChangedType }
func (OrderStatusChanged) Exchange() string     { return ExchangeOrders }
func (e OrderStatusChanged) AggregateID() int64 { return e.OrderID }

// OrderCancelled carries ProviderID only when a provider was bound.
type OrderCancelled struct {
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	ProviderID *int64 `json:"provider_id,omitempty"`
}

func (OrderCancelled) EventType() Type      { return OrderCancelledType }
func (OrderCancelled) Exchange() string     { return ExchangeOrders }
func (e OrderCancelled) AggregateID() int64 { return e.OrderID }
