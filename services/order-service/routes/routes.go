package routes

import (
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"
	"github.com/yashrajoria/freelance-marketplace/services/order-service/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterOrderRoutes sets up the customer, provider and admin order routes.
func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	customer := r.Group("/customer/orders")
	customer.Use(middleware.AuthMiddleware(), middleware.RequireRole(middleware.RoleCustomer))
	{
		customer.POST("/publish", oc.PublishOrder)
		customer.POST("/cancel/:id", oc.CancelOrder)
		customer.GET("/my", oc.ListActiveOrders)
		customer.GET("/my/:id", oc.GetCustomerOrder)
		customer.GET("/history", oc.ListCustomerHistory)
	}

	provider := r.Group("/provider/orders")
	provider.Use(middleware.AuthMiddleware(), middleware.RequireRole(middleware.RoleProvider))
	{
		provider.GET("/available", oc.ListAvailableOrders)
		provider.GET("/available/:id", oc.GetAvailableOrder)
		provider.POST("/accept/:id", oc.AcceptOrder)
		provider.POST("/status/:id", oc.UpdateOrderStatus)
		provider.GET("/history", oc.ListProviderHistory)
		provider.GET("/my/:id", oc.GetProviderOrder)
	}

	admin := r.Group("/admin/orders")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
	{
		admin.GET("", oc.ListOrders)
		admin.GET("/pending-review", oc.ListPendingReview)
		admin.GET("/:id", oc.GetOrder)
		admin.PUT("/:id", oc.UpdateOrder)
		admin.DELETE("/:id", oc.DeleteOrder)
		admin.POST("/:id/approve", oc.ApproveOrder)
	}
}
