package handlers

import (
	"database/sql"
	"errors"
	nethttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"roamwyth/internal/models"
	"roamwyth/internal/repositories"
	"roamwyth/internal/services"
)

type WanderlistHandler struct {
	wanderlist      repositories.WanderlistRepository
	recommendations repositories.RecommendationRepository
	trips           *services.TripService
}

func NewWanderlistHandler(wanderlist repositories.WanderlistRepository, recommendations repositories.RecommendationRepository, trips *services.TripService) *WanderlistHandler {
	return &WanderlistHandler{wanderlist: wanderlist, recommendations: recommendations, trips: trips}
}

func (h *WanderlistHandler) List(c *gin.Context) {
	items, err := h.wanderlist.List(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to load wanderlist"})
		return
	}
	c.JSON(nethttp.StatusOK, items)
}

type wanderlistBody struct {
	City    string `json:"city" binding:"required"`
	Country string `json:"country"`
	PlaceID string `json:"place_id"`
	Notes   string `json:"notes"`
}

func (h *WanderlistHandler) Add(c *gin.Context) {
	var body wanderlistBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.City) == "" {
		badRequest(c, "city is required")
		return
	}
	item, err := h.wanderlist.Create(c.Request.Context(), &models.WanderlistItem{
		UserID:  currentUser(c),
		City:    strings.TrimSpace(body.City),
		Country: strings.TrimSpace(body.Country),
		PlaceID: body.PlaceID,
		Notes:   body.Notes,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			c.JSON(nethttp.StatusConflict, gin.H{"error": "city is already on your wanderlist"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to save wanderlist item"})
		return
	}
	c.JSON(nethttp.StatusCreated, item)
}

func (h *WanderlistHandler) Remove(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid wanderlist id")
		return
	}
	if err := h.wanderlist.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "wanderlist item not found"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to delete wanderlist item"})
		return
	}
	c.Status(nethttp.StatusNoContent)
}

func (h *WanderlistHandler) ListRecommendations(c *gin.Context) {
	recs, err := h.recommendations.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to load recommendations"})
		return
	}
	c.JSON(nethttp.StatusOK, recs)
}

type recommendationBody struct {
	TripID   *uuid.UUID                    `json:"trip_id"`
	Name     string                        `json:"name" binding:"required"`
	City     string                        `json:"city"`
	Country  string                        `json:"country"`
	PlaceID  string                        `json:"place_id"`
	Category models.RecommendationCategory `json:"category"`
	Notes    string                        `json:"notes"`
}

func (h *WanderlistHandler) AddRecommendation(c *gin.Context) {
	var body recommendationBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		badRequest(c, "name is required")
		return
	}
	if body.Category == "" {
		body.Category = models.RecommendationOther
	}
	if !body.Category.Valid() {
		badRequest(c, "invalid category")
		return
	}

	userID := currentUser(c)
	ctx := c.Request.Context()
	if body.TripID != nil {
		if _, err := h.trips.Get(ctx, *body.TripID, userID); err != nil {
			respondError(c, err)
			return
		}
	}

	rec, err := h.recommendations.Create(ctx, &models.SharedRecommendation{
		UserID:   userID,
		TripID:   body.TripID,
		Name:     strings.TrimSpace(body.Name),
		City:     body.City,
		Country:  body.Country,
		PlaceID:  body.PlaceID,
		Category: body.Category,
		Notes:    body.Notes,
	})
	if err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to save recommendation"})
		return
	}
	c.JSON(nethttp.StatusCreated, rec)
}

func (h *WanderlistHandler) RemoveRecommendation(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid recommendation id")
		return
	}
	if err := h.recommendations.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "recommendation not found"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to delete recommendation"})
		return
	}
	c.Status(nethttp.StatusNoContent)
}

func (h *WanderlistHandler) ListTripRecommendations(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.trips.Get(ctx, tripID, currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	recs, err := h.recommendations.ListForTrip(ctx, tripID)
	if err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to load recommendations"})
		return
	}
	c.JSON(nethttp.StatusOK, recs)
}
