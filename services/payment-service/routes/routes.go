package routes

import (
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"
	"github.com/yashrajoria/freelance-marketplace/services/payment-service/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterPaymentRoutes(r *gin.Engine, pc *controllers.PaymentController) {
	customer := r.Group("/customer")
	customer.Use(middleware.AuthMiddleware(), middleware.RequireRole(middleware.RoleCustomer))

	payments := customer.Group("/payments")
	payments.POST("/pay", pc.PayOrder)
	payments.GET("/my", pc.ListMyPayments)
	payments.GET("/order/:order_id", pc.GetPaymentForOrder)

	customer.POST("/refunds", pc.Refund)
}
