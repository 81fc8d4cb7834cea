package handlers

import (
	"io"
	"log"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"roamwyth/internal/services"
	"roamwyth/internal/telemetry"
)

const maxWebhookBytes = 1 << 20

type PaymentHandler struct {
	payments *services.PaymentService
	audit    *telemetry.AuditEmitter
}

func NewPaymentHandler(payments *services.PaymentService, audit *telemetry.AuditEmitter) *PaymentHandler {
	return &PaymentHandler{payments: payments, audit: audit}
}

// Webhook must see the body exactly as sent, so it is read raw rather than
// bound.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil || len(payload) > maxWebhookBytes {
		badRequest(c, "invalid payload")
		return
	}

	res, err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader(services.SignatureHeader))
	if err != nil {
		log.Printf("warning: payment webhook rejected: %v", err)
		respondError(c, err)
		return
	}

	if res.Handled && h.audit != nil {
		userID := res.UserID
		h.audit.Emit(c.Request.Context(), telemetry.LevelInfo, "payment."+res.Type, "Plan set to "+res.Plan, requestIDFromHeader(c), &userID)
	}
	c.JSON(nethttp.StatusOK, res)
}
