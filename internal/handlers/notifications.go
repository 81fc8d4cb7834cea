package handlers

import (
	"database/sql"
	"errors"
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roamwyth/internal/repositories"
)

const (
	defaultNotificationPage = 50
	maxNotificationPage     = 200
)

type NotificationHandler struct {
	notifications repositories.NotificationRepository
}

func NewNotificationHandler(notifications repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit := defaultNotificationPage
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, "invalid limit")
			return
		}
		limit = min(n, maxNotificationPage)
	}

	items, err := h.notifications.ListForUser(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}
	c.JSON(nethttp.StatusOK, items)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid notification id")
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), id, currentUser(c)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to update notification"})
		return
	}
	c.Status(nethttp.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to update notifications"})
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"updated": n})
}
