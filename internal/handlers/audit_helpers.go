package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"roamwyth/internal/middleware"
)

func requestIDFromHeader(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return requestID
}

// userIDFromContext returns the authenticated user, or nil when the route is
// not behind JWTAuth.
func userIDFromContext(c *gin.Context) *uuid.UUID {
	if userIDVal, ok := c.Get(middleware.ContextUserID); ok {
		if userID, ok := userIDVal.(uuid.UUID); ok && userID != uuid.Nil {
			return &userID
		}
	}
	return nil
}

// currentUser is for routes mounted behind JWTAuth, which always sets the id.
func currentUser(c *gin.Context) uuid.UUID {
	userIDVal, _ := c.Get(middleware.ContextUserID)
	userID, _ := userIDVal.(uuid.UUID)
	return userID
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
