package controllers

import (
	"fmt"
	"net/http"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/validation"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/models"

	"github.com/gin-gonic/gin"
)

// ListOrders handles GET /admin/orders?status=
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	result, err := oc.orderService.ListOrders(ctx.Request.Context(), ctx.Query("status"), page, limit)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// ListPendingReview handles GET /admin/orders/pending-review
func (oc *OrderController) ListPendingReview(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	result, err := oc.orderService.ListPendingReview(ctx.Request.Context(), page, limit)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetOrder handles GET /admin/orders/:id
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}
	order, err := oc.orderService.GetOrder(ctx.Request.Context(), orderID)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// ApproveOrder handles POST /admin/orders/:id/approve
func (oc *OrderController) ApproveOrder(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}
	var req models.ApproveOrderRequest
	if err := validation.BindJSON(ctx, &req); err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	order, err := oc.orderService.ApproveOrder(ctx.Request.Context(), orderID, &req)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}

	msg := fmt.Sprintf("Order %d has been approved and is now available for providers.", order.ID)
	if !req.Approved {
		msg = fmt.Sprintf("Order %d has been rejected.", order.ID)
	}
	ctx.JSON(http.StatusOK, actionResponse{OrderID: order.ID, Status: string(order.Status), Message: msg})
}

// UpdateOrder handles PUT /admin/orders/:id
func (oc *OrderController) UpdateOrder(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}
	var req models.AdminUpdateOrderRequest
	if err := validation.BindJSON(ctx, &req); err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	order, err := oc.orderService.UpdateOrder(ctx.Request.Context(), orderID, &req)
	if err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /admin/orders/:id
func (oc *OrderController) DeleteOrder(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}
	if err := oc.orderService.DeleteOrder(ctx.Request.Context(), orderID); err != nil {
		apperrors.Respond(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order_id": orderID, "message": "Order deleted successfully"})
}
