// Package orderclient reads orders from the order-service on behalf of a caller.
package orderclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Order is the subset of the order-service representation its peers rely on.
type Order struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"customer_id"`
	ProviderID    *int64          `json:"provider_id"`
	Title         string          `json:"title"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	Price         decimal.Decimal `json:"price"`
}

// Caller is the identity the request is made as; the order-service applies its
// own ownership checks to it.
type Caller struct {
	UserID int64
	Role   int
	Bearer string
}

type Client interface {
	GetCustomerOrder(ctx context.Context, caller Caller, orderID int64) (*Order, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *httpClient) GetCustomerOrder(ctx context.Context, caller Caller, orderID int64) (*Order, error) {
	url := fmt.Sprintf("%s/customer/orders/my/%d", c.baseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Internal("Failed to build order request", err)
	}
	req.Header.Set(middleware.HeaderUserID, strconv.FormatInt(caller.UserID, 10))
	req.Header.Set(middleware.HeaderUserRole, strconv.Itoa(caller.Role))
	if caller.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+caller.Bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("order service call failed", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, apperrors.Upstream("Order service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, apperrors.Upstream("Invalid order service response", err)
	}
	return &order, nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.NotFound(orDefault(body.Error, "Order not found"))
	case http.StatusForbidden, http.StatusUnauthorized:
		return apperrors.Permission(orDefault(body.Error, "Not allowed to access this order"))
	default:
		return apperrors.Upstream(
			"Order service unavailable",
			fmt.Errorf("order service returned status %d: %s", resp.StatusCode, string(raw)),
		)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
