package controllers

import (
	"net/http"
	"strconv"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"
	"github.com/yashrajoria/freelance-marketplace/services/common/orderclient"
	"github.com/yashrajoria/freelance-marketplace/services/common/validation"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/review-service/services"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	reviewService services.ReviewService
}

func NewReviewController(reviewService services.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

// CreateReview handles POST /reviews
func (rc *ReviewController) CreateReview(c *gin.Context) {
	var req models.CreateReviewRequest
	if err := validation.BindJSON(c, &req); err != nil {
		apperrors.Respond(c, err)
		return
	}

	caller := orderclient.Caller{
		UserID: middleware.GetUserID(c),
		Role:   middleware.GetRole(c),
		Bearer: middleware.GetBearerToken(c),
	}
	resp, err := rc.reviewService.CreateReview(c.Request.Context(), caller, &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetMyRating handles GET /reviews/provider/me/rating
func (rc *ReviewController) GetMyRating(c *gin.Context) {
	rc.respondRating(c, middleware.GetUserID(c))
}

// GetProviderRating handles GET /reviews/provider/:provider_id/rating
func (rc *ReviewController) GetProviderRating(c *gin.Context) {
	providerID, ok := parseID(c, "provider_id")
	if !ok {
		return
	}
	rc.respondRating(c, providerID)
}

func (rc *ReviewController) respondRating(c *gin.Context, providerID int64) {
	rating, err := rc.reviewService.GetProviderRating(c.Request.Context(), providerID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

// ListMyReviews handles GET /reviews/provider/me/reviews
func (rc *ReviewController) ListMyReviews(c *gin.Context) {
	rc.respondReviews(c, middleware.GetUserID(c))
}

// ListProviderReviews handles GET /reviews/provider/:provider_id
func (rc *ReviewController) ListProviderReviews(c *gin.Context) {
	providerID, ok := parseID(c, "provider_id")
	if !ok {
		return
	}
	rc.respondReviews(c, providerID)
}

func (rc *ReviewController) respondReviews(c *gin.Context, providerID int64) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	list, err := rc.reviewService.ListReviewsForProvider(c.Request.Context(), providerID, page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrderReview handles GET /reviews/order/:order_id
func (rc *ReviewController) GetOrderReview(c *gin.Context) {
	orderID, ok := parseID(c, "order_id")
	if !ok {
		return
	}
	review, err := rc.reviewService.GetReviewByOrder(c.Request.Context(), orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		apperrors.Respond(c, apperrors.Validation("Invalid "+param))
		return 0, false
	}
	return id, true
}
