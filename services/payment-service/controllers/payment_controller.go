package controllers

import (
	"net/http"
	"strconv"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"
	"github.com/yashrajoria/freelance-marketplace/services/common/orderclient"
	"github.com/yashrajoria/freelance-marketplace/services/common/validation"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/services"

	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// PayOrder handles POST /customer/payments/pay
func (pc *PaymentController) PayOrder(c *gin.Context) {
	var req models.PayOrderRequest
	if err := validation.BindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	caller := orderclient.Caller{
		UserID: middleware.GetUserID(c),
		Role:   middleware.GetRole(c),
		Bearer: middleware.GetBearerToken(c),
	}
	resp, err := pc.paymentService.PayOrder(c.Request.Context(), caller, req.OrderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refund handles POST /customer/refunds
func (pc *PaymentController) Refund(c *gin.Context) {
	var req models.RefundRequest
	if err := validation.BindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}
	resp, err := pc.paymentService.Refund(c.Request.Context(), middleware.GetUserID(c), req.OrderID, req.Reason)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMyPayments handles GET /customer/payments/my
func (pc *PaymentController) ListMyPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	resp, err := pc.paymentService.ListMyPayments(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetPaymentForOrder handles GET /customer/payments/order/:order_id
func (pc *PaymentController) GetPaymentForOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		apperrors.Respond(c, apperrors.Validation("Invalid order ID format"))
		return
	}
	payment, err := pc.paymentService.GetPaymentForOrder(c.Request.Context(), middleware.GetUserID(c), orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
