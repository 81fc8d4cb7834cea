package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"roamwyth/internal/metrics"
	"roamwyth/internal/services"
)

const (
	aiKindBooking        = "booking"
	aiKindRecommendation = "recommendation"
)

// Bookings may arrive as base64 screenshots.
const maxAIRequestBytes = 12 << 20

type AIHandler struct {
	ai *services.AIService
}

func NewAIHandler(ai *services.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

func (h *AIHandler) ParseBooking(c *gin.Context) {
	c.Request.Body = nethttp.MaxBytesReader(c.Writer, c.Request.Body, maxAIRequestBytes)
	var body services.BookingInput
	if err := c.ShouldBindJSON(&body); err != nil {
		metrics.IncAIRequest(aiKindBooking, metrics.StatusFailed)
		badRequest(c, "invalid request body")
		return
	}
	bookings, err := h.ai.ParseBooking(c.Request.Context(), body)
	if err != nil {
		metrics.IncAIRequest(aiKindBooking, metrics.StatusFailed)
		respondError(c, err)
		return
	}
	metrics.IncAIRequest(aiKindBooking, metrics.StatusSuccess)
	c.JSON(nethttp.StatusOK, gin.H{"bookings": bookings})
}

func (h *AIHandler) Recommend(c *gin.Context) {
	var body services.RecommendationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		metrics.IncAIRequest(aiKindRecommendation, metrics.StatusFailed)
		badRequest(c, "invalid request body")
		return
	}
	recs, err := h.ai.Recommend(c.Request.Context(), body)
	h.respondRecommendations(c, recs, err)
}

type tripRecommendationBody struct {
	Interests []string `json:"interests"`
	Count     int      `json:"count"`
}

func (h *AIHandler) RecommendForTrip(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		metrics.IncAIRequest(aiKindRecommendation, metrics.StatusFailed)
		badRequest(c, "invalid trip id")
		return
	}
	var body tripRecommendationBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			metrics.IncAIRequest(aiKindRecommendation, metrics.StatusFailed)
			badRequest(c, "invalid request body")
			return
		}
	}
	recs, err := h.ai.RecommendForTrip(c.Request.Context(), tripID, currentUser(c), body.Interests, body.Count)
	h.respondRecommendations(c, recs, err)
}

func (h *AIHandler) respondRecommendations(c *gin.Context, recs []services.AIRecommendation, err error) {
	if err != nil {
		metrics.IncAIRequest(aiKindRecommendation, metrics.StatusFailed)
		respondError(c, err)
		return
	}
	metrics.IncAIRequest(aiKindRecommendation, metrics.StatusSuccess)
	c.JSON(nethttp.StatusOK, gin.H{"recommendations": recs})
}
