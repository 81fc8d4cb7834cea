package handlers

import (
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"roamwyth/internal/services"
)

type MessageHandler struct {
	chat *services.ChatService
}

func NewMessageHandler(chat *services.ChatService) *MessageHandler {
	return &MessageHandler{chat: chat}
}

type sendMessageBody struct {
	Body string `json:"body" binding:"required"`
}

func (h *MessageHandler) Send(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	var body sendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	msg, err := h.chat.Send(c.Request.Context(), tripID, currentUser(c), body.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusCreated, msg)
}

func (h *MessageHandler) List(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			badRequest(c, "before must be an RFC3339 timestamp")
			return
		}
		before = &t
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	messages, err := h.chat.List(c.Request.Context(), tripID, currentUser(c), before, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, messages)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	if err := h.chat.MarkRead(c.Request.Context(), tripID, currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(nethttp.StatusNoContent)
}

func (h *MessageHandler) Unread(c *gin.Context) {
	summary, err := h.chat.Unread(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, summary)
}
