package handlers

import (
	"errors"
	"log"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"roamwyth/internal/services"
)

var statusByKind = []struct {
	kind   error
	status int
}{
	{services.ErrUnauthorized, nethttp.StatusUnauthorized},
	{services.ErrBadRequest, nethttp.StatusBadRequest},
	{services.ErrNotFound, nethttp.StatusNotFound},
	{services.ErrExpired, nethttp.StatusGone},
	{services.ErrForbidden, nethttp.StatusForbidden},
	{services.ErrConflict, nethttp.StatusConflict},
	{services.ErrServiceUnavailable, nethttp.StatusServiceUnavailable},
	{services.ErrBadGateway, nethttp.StatusBadGateway},
	{services.ErrUpstreamUnparseable, nethttp.StatusBadGateway},
	{services.ErrRateLimited, nethttp.StatusTooManyRequests},
}

func statusFor(err error) int {
	for _, m := range statusByKind {
		if errors.Is(err, m.kind) {
			return m.status
		}
	}
	return nethttp.StatusInternalServerError
}

// respondError writes {"error": ...}. Service errors carry a message meant for
// the client; anything else is logged and reported generically.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	var svcErr *services.Error
	if errors.As(err, &svcErr) && status != nethttp.StatusInternalServerError {
		c.JSON(status, gin.H{"error": svcErr.Error()})
		return
	}
	log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "internal error"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(nethttp.StatusBadRequest, gin.H{"error": msg})
}
