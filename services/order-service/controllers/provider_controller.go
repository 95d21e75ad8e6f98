package controllers

import (
	"fmt"
	"net/http"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"
	"github.com/yashrajoria/freelance-marketplace/services/common/validation"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListAvailableOrders handles GET /provider/orders/available
func (oc *OrderController) ListAvailableOrders(ctx *gin.Context) {
	var filter models.AvailableFilter
	if loc := ctx.Query("location"); loc != "" {
		l := models.Location(loc)
		filter.Location = &l
	}
	var ok bool
	if filter.MinPrice, ok = parsePrice(ctx, "min_price"); !ok {
		return
	}
	if filter.MaxPrice, ok = parsePrice(ctx, "max_price"); !ok {
		return
	}
	filter.Keyword = ctx.Query("keyword")

	page, limit := parsePaginationParams(ctx)
	result, err := oc.orderService.ListAvailableOrders(ctx.Request.Context(), filter, page, limit)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func parsePrice(ctx *gin.Context, key string) (*decimal.Decimal, bool) {
	raw := ctx.Query(key)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		apperrors.Respond(ctx, apperrors.Validation("Invalid "+key))
		return nil, false
	}
	return &d, true
}

// GetAvailableOrder handles GET /provider/orders/available/:id
func (oc *OrderController) GetAvailableOrder(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}
	order, err := oc.orderService.GetAvailableOrder(ctx.Request.Context(), orderID)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// AcceptOrder handles POST /provider/orders/accept/:id
func (oc *OrderController) AcceptOrder(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}
	order, err := oc.orderService.AcceptOrder(ctx.Request.Context(), middleware.GetUserID(ctx), orderID)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, actionResponse{
		OrderID: order.ID,
		Status:  string(order.Status),
		Message: fmt.Sprintf("You have successfully accepted the order: %d.", order.ID),
	})
}

// UpdateOrderStatus handles POST /provider/orders/status/:id
func (oc *OrderController) UpdateOrderStatus(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}
	var req models.UpdateStatusRequest
	if err := validation.BindJSON(ctx, &req); err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	order, err := oc.orderService.UpdateOrderStatus(ctx.Request.Context(), middleware.GetUserID(ctx), orderID, req.NewStatus)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, actionResponse{
		OrderID: order.ID,
		Status:  string(order.Status),
		Message: fmt.Sprintf("Order %d status updated to %s.", order.ID, order.Status),
	})
}

// ListProviderHistory handles GET /provider/orders/history
func (oc *OrderController) ListProviderHistory(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	result, err := oc.orderService.ListProviderHistory(ctx.Request.Context(), middleware.GetUserID(ctx), page, limit)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetProviderOrder handles GET /provider/orders/my/:id
func (oc *OrderController) GetProviderOrder(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}
	order, err := oc.orderService.GetProviderOrder(ctx.Request.Context(), middleware.GetUserID(ctx), orderID)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}
