package events

const (
	PaymentInitiatedType Type = "payment.initiated"
	PaymentCompletedType Type = "payment.completed"
	PaymentFailedType    Type = "payment.failed"
	RefundProcessedType  Type = "refund.processed"
)

type PaymentInitiated struct {
	PaymentID  int64 `json:"payment_id"`
	OrderID    int64 `json:"order_id"`
	CustomerID int64 `json:"customer_id"`
	Amount     Money `json:"amount"`
}

func (PaymentInitiated) EventType() Type      { return PaymentInitiatedType }
func (PaymentInitiated) Exchange() string     { return ExchangePayments }
func (e PaymentInitiated) AggregateID() int64 { return e.PaymentID }

type PaymentCompleted struct {
	PaymentID     int64  `json:"payment_id"`
	OrderID       int64  `json:"order_id"`
	CustomerID    int64  `json:"customer_id"`
	ProviderID    int64  `json:"provider_id"`
	Amount        Money  `json:"amount"`
	TransactionID string `json:"transaction_id"`
}

func (PaymentCompleted) EventType() Type      { return PaymentCompletedType }
func (PaymentCompleted) Exchange() string     { return ExchangePayments }
func (e PaymentCompleted) AggregateID() int64 { return e.PaymentID }

type PaymentFailed struct {
	PaymentID  int64  `json:"payment_id"`
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	Amount     Money  `json:"amount"`
	Reason     string `json:"reason"`
}

func (PaymentFailed) EventType() Type      { return PaymentFailedType }
func (PaymentFailed) Exchange() string     { return ExchangePayments }
func (e PaymentFailed) AggregateID() int64 { return e.PaymentID }

type RefundProcessed struct {
	RefundID   int64  `json:"refund_id"`
	PaymentID  int64  `json:"payment_id"`
	OrderID    int64  `json:"order_id"`
	CustomerID int64  `json:"customer_id"`
	Amount     Money  `json:"amount"`
	Reason     string `json:"reason,omitempty"`
}

func (RefundProcessed) EventType() Type      { return RefundProcessedType }
func (RefundProcessed) Exchange() string     { return ExchangePayments }
func (e RefundProcessed) AggregateID() int64 { return e.RefundID }
