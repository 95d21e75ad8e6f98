package routes

import (
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterReviewRoutes mounts /reviews. Ratings and review listings are
// public; writing a review and the "me" views need an identity.
func RegisterReviewRoutes(r *gin.Engine, rc *controllers.ReviewController) {
	reviews := r.Group("/reviews")
	reviews.POST("", middleware.AuthMiddleware(), middleware.RequireRole(middleware.RoleCustomer), rc.CreateReview)

	me := reviews.Group("/provider/me")
	me.Use(middleware.AuthMiddleware(), middleware.RequireRole(middleware.RoleProvider))
	me.GET("/rating", rc.GetMyRating)
	me.GET("/reviews", rc.ListMyReviews)

	reviews.GET("/provider/:provider_id", rc.ListProviderReviews)
	reviews.GET("/provider/:provider_id/rating", rc.GetProviderRating)
	reviews.GET("/order/:order_id", rc.GetOrderReview)
}
