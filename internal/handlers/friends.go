package handlers

import (
	"context"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"roamwyth/internal/metrics"
	"roamwyth/internal/services"
	"roamwyth/internal/telemetry"
)

type FriendHandler struct {
	friends *services.FriendService
	audit   *telemetry.AuditEmitter
}

func NewFriendHandler(friends *services.FriendService, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{friends: friends, audit: audit}
}

type sendRequestBody struct {
	AddresseeID uuid.UUID `json:"addressee_id" binding:"required"`
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)
	ctx := c.Request.Context()
	if userID == nil {
		metrics.IncFriendRequest(metrics.StatusFailed)
		c.JSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body sendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.emitAudit(ctx, telemetry.LevelError, "friend.request", "invalid request payload", requestID, userID)
		metrics.IncFriendRequest(metrics.StatusFailed)
		badRequest(c, "invalid request body")
		return
	}

	f, err := h.friends.Request(ctx, *userID, body.AddresseeID)
	if err != nil {
		h.emitAudit(ctx, telemetry.LevelError, "friend.request", err.Error(), requestID, userID)
		metrics.IncFriendRequest(metrics.StatusFailed)
		respondError(c, err)
		return
	}

	h.emitAudit(ctx, telemetry.LevelInfo, "friend.request", "Friend request sent to '"+body.AddresseeID.String()+"'", requestID, userID)
	metrics.IncFriendRequest(metrics.StatusSuccess)
	c.JSON(nethttp.StatusCreated, f)
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	requests, err := h.friends.Requests(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, requests)
}

func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	h.handleDecision(c, true, "accepted", metrics.IncFriendAccept)
}

func (h *FriendHandler) DeclineRequest(c *gin.Context) {
	h.handleDecision(c, false, "declined", metrics.IncFriendDecline)
}

func (h *FriendHandler) handleDecision(c *gin.Context, accept bool, status string, inc func(string)) {
	reqID, ok := uuidParam(c, "id")
	if !ok {
		inc(metrics.StatusFailed)
		badRequest(c, "invalid request id")
		return
	}

	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)
	ctx := c.Request.Context()
	if userID == nil {
		inc(metrics.StatusFailed)
		c.JSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	f, err := h.friends.Respond(ctx, reqID, *userID, accept)
	if err != nil {
		h.emitAudit(ctx, telemetry.LevelError, "friend."+status, err.Error(), requestID, userID)
		inc(metrics.StatusFailed)
		respondError(c, err)
		return
	}

	h.emitAudit(ctx, telemetry.LevelInfo, "friend."+status, "Friend request "+status, requestID, userID)
	inc(metrics.StatusSuccess)
	c.JSON(nethttp.StatusOK, f)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	friends, err := h.friends.Friends(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, friends)
}

// DeleteFriendship cancels an outgoing request, clears a declined one, or
// unfriends, depending on the row's state.
func (h *FriendHandler) DeleteFriendship(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid friendship id")
		return
	}
	userID := currentUser(c)
	ctx := c.Request.Context()
	if _, err := h.friends.Remove(ctx, id, userID); err != nil {
		respondError(c, err)
		return
	}
	h.emitAudit(ctx, telemetry.LevelInfo, "friend.remove", "Friendship '"+id.String()+"' removed", requestIDFromHeader(c), &userID)
	c.Status(nethttp.StatusNoContent)
}

func (h *FriendHandler) emitAudit(ctx context.Context, level, action, text, requestID string, userID *uuid.UUID) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(ctx, level, action, text, requestID, userID)
}
