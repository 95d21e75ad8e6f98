package controllers

import (
	"fmt"
	"net/http"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"
	"github.com/yashrajoria/freelance-marketplace/services/common/validation"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"

	"github.com/gin-gonic/gin"
)

// PublishOrder handles POST /customer/orders/publish
func (oc *OrderController) PublishOrder(ctx *gin.Context) {
	var req models.PublishOrderRequest
	if err := validation.BindJSON(ctx, &req); err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	order, err := oc.orderService.PublishOrder(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, actionResponse{
		OrderID: order.ID,
		Status:  string(order.Status),
		Message: fmt.Sprintf("You have successfully published the order: %d.", order.ID),
	})
}

// CancelOrder handles POST /customer/orders/cancel/:id
func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}

	order, err := oc.orderService.CancelOrder(ctx.Request.Context(), middleware.GetUserID(ctx), orderID)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, actionResponse{
		OrderID: order.ID,
		Status:  string(order.Status),
		Message: fmt.Sprintf("You have successfully cancelled the order: %d.", order.ID),
	})
}

// ListActiveOrders handles GET /customer/orders/my
func (oc *OrderController) ListActiveOrders(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	result, err := oc.orderService.ListActiveOrders(ctx.Request.Context(), middleware.GetUserID(ctx), page, limit)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetCustomerOrder handles GET /customer/orders/my/:id. Peer services read
// orders through this endpoint, so the body is the bare order.
func (oc *OrderController) GetCustomerOrder(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}
	order, err := oc.orderService.GetCustomerOrder(ctx.Request.Context(), middleware.GetUserID(ctx), orderID)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// ListCustomerHistory handles GET /customer/orders/history
func (oc *OrderController) ListCustomerHistory(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	result, err := oc.orderService.ListCustomerHistory(ctx.Request.Context(), middleware.GetUserID(ctx), page, limit)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
