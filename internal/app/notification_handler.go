package app

import (
	"net/http"

	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetNotifications handles getting notifications for current user
// GET /api/v1/notifications?unread=true
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page := util.ParsePage(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.GetNotifications(userID, unreadOnly, page.Limit(), page.Offset())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.PaginatedResponse(c, page, total, notifications)
}

// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.GetUnreadCount(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Unread count retrieved successfully", gin.H{"count": count})
}

// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.notificationService.MarkAsRead(c.Param("id"), userID); err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Notification marked as read", nil)
}

// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.notificationService.MarkAllAsRead(userID); err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "All notifications marked as read", nil)
}

// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.notificationService.DeleteNotification(c.Param("id"), userID); err != nil {
		handleServiceError(c, err)
		return
	}
	util.SuccessResponse(c, http.StatusOK, "Notification deleted successfully", nil)
}
