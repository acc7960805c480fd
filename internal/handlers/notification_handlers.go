package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Notification Handlers ---
//

// notificationLimit caps the list to avoid performance issues
const notificationLimit = 50

// GetMyNotifications is the handler for GET /v1/notifications
// It retrieves the logged-in user's order notifications, newest first.
func (h *Handlers) GetMyNotifications(c *gin.Context) {
	who, ok := actor(c)
	if !ok {
		return
	}
	notifications, err := h.Repos.Notification.ListByUser(c.Request.Context(), who.UserID, notificationLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
