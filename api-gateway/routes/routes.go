package routes

import (
	"github.com/yashrajoria/freelance-marketplace/api-gateway/middlewares"
	"github.com/yashrajoria/freelance-marketplace/api-gateway/utils"
	"github.com/yashrajoria/freelance-marketplace/services/common/auth"

	"github.com/gin-gonic/gin"
)

// Upstreams are the base URLs of the backend services.
type Upstreams struct {
	Auth         string
	Order        string
	Payment      string
	Review       string
	Notification string
}

func RegisterAllRoutes(r *gin.Engine, fwd *utils.Forwarder, verifier *auth.Verifier, up Upstreams) {
	r.Use(middlewares.StripIdentityHeaders())

	reviews := fwd.To(up.Review)

	// ===== PUBLIC ROUTES =====
	r.GET("/reviews/provider/:provider_id", reviews)
	r.GET("/reviews/provider/:provider_id/rating", reviews)
	r.GET("/reviews/order/:order_id", reviews)

	if up.Auth != "" {
		r.Any("/auth/*any", fwd.To(up.Auth))
	}

	// ===== PROTECTED ROUTES (JWT Required) =====
	protected := r.Group("/")
	protected.Use(middlewares.JWTMiddleware(verifier))

	orders := fwd.To(up.Order)
	protected.Any("/customer/orders/*any", orders)
	protected.Any("/provider/orders/*any", orders)

	payments := fwd.To(up.Payment)
	protected.Any("/customer/payments/*any", payments)
	protected.POST("/customer/refunds", payments)

	protected.POST("/reviews", reviews)
	protected.GET("/reviews/provider/me/rating", reviews)
	protected.GET("/reviews/provider/me/reviews", reviews)

	inbox := fwd.To(up.Notification)
	protected.GET("/customer/inbox", inbox)
	protected.Any("/customer/inbox/*any", inbox)
	protected.GET("/provider/inbox", inbox)
	protected.Any("/provider/inbox/*any", inbox)

	// ===== ADMIN ROUTES =====
	admin := protected.Group("/admin")
	admin.Use(middlewares.AdminRoleMiddleware())
	admin.GET("/orders", orders)
	admin.Any("/orders/*any", orders)
	admin.Any("/notifications/*any", inbox)
}
