package controllers

import (
	"net/http"
	"strconv"

	apperrors "github.com/yashrajoria/freelance-marketplace/services/common/errors"
	"github.com/yashrajoria/freelance-marketplace/services/common/middleware"
	"github.com/yashrajoria/freelance-marketplace/services/common/validation"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/models"
	"github.com/yashrajoria/freelance-marketplace/services/notification-service/services"

	"github.com/gin-gonic/gin"
)

type InboxController struct {
	notifications services.NotificationService
}

func NewInboxController(notifications services.NotificationService) *InboxController {
	return &InboxController{notifications: notifications}
}

// List handles GET /{customer|provider}/inbox
func (ic *InboxController) List(rtype models.RecipientType) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 20
		}
		list, err := ic.notifications.ListInbox(c.Request.Context(), rtype, middleware.GetUserID(c), page, limit)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// UnreadCount handles GET /{customer|provider}/inbox/unread-count
func (ic *InboxController) UnreadCount(rtype models.RecipientType) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := ic.notifications.UnreadCount(c.Request.Context(), rtype, middleware.GetUserID(c))
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": n})
	}
}

// MarkRead handles POST /{customer|provider}/inbox/read/:order_id
func (ic *InboxController) MarkRead(rtype models.RecipientType) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseID(c, "order_id")
		if !ok {
			return
		}
		n, err := ic.notifications.MarkRead(c.Request.Context(), rtype, middleware.GetUserID(c), orderID)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": orderID, "updated": n})
	}
}

// MarkAllRead handles POST /{customer|provider}/inbox/read-all
func (ic *InboxController) MarkAllRead(rtype models.RecipientType) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := ic.notifications.MarkAllRead(c.Request.Context(), rtype, middleware.GetUserID(c))
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	}
}

// SendPlatformNotice handles POST /admin/notifications/{customer|provider}/:user_id
func (ic *InboxController) SendPlatformNotice(rtype models.RecipientType) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseID(c, "user_id")
		if !ok {
			return
		}
		var req models.PlatformNoticeRequest
		if err := validation.BindJSON(c, &req); err != nil {
			apperrors.Respond(c, err)
			return
		}
		if err := ic.notifications.SendPlatformNotice(c.Request.Context(), rtype, userID, req.Message); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id": userID,
			"message": "Notification sent successfully to " + string(rtype),
		})
	}
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		apperrors.Respond(c, apperrors.Validation("Invalid "+param))
		return 0, false
	}
	return id, true
}
