package routes

import (
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/controllers"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/models"

	"github.com/gin-gonic/gin"
)

func RegisterNotificationRoutes(r *gin.Engine, ic *controllers.InboxController) {
	registerInbox(r.Group("/customer/inbox"), ic, models.RecipientCustomer, middleware.RoleCustomer)
	registerInbox(r.Group("/provider/inbox"), ic, models.RecipientProvider, middleware.RoleProvider)

	admin := r.Group("/admin/notifications")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
	admin.POST("/customer/:user_id", ic.SendPlatformNotice(models.RecipientCustomer))
	admin.POST("/provider/:user_id", ic.SendPlatformNotice(models.RecipientProvider))
}

func registerInbox(g *gin.RouterGroup, ic *controllers.InboxController, rtype models.RecipientType, role int) {
	g.Use(middleware.AuthMiddleware(), middleware.RequireRole(role))
	g.GET("", ic.List(rtype))
	g.GET("/unread-count", ic.UnreadCount(rtype))
	g.POST("/read/:order_id", ic.MarkRead(rtype))
	g.POST("/read-all", ic.MarkAllRead(rtype))
}
