package handlers

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"roamwyth/internal/models"
	"roamwyth/internal/services"
)

type TripHandler struct {
	trips *services.TripService
}

func NewTripHandler(trips *services.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

func (h *TripHandler) Roster(c *gin.Context) {
	trips, err := h.trips.Roster(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, trips)
}

func (h *TripHandler) Create(c *gin.Context) {
	var body services.TripInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	trip, err := h.trips.Create(c.Request.Context(), currentUser(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusCreated, trip)
}

func (h *TripHandler) Get(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	trip, err := h.trips.Get(c.Request.Context(), tripID, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, trip)
}

func (h *TripHandler) Update(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	var patch services.TripPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	trip, err := h.trips.Update(c.Request.Context(), tripID, currentUser(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, trip)
}

func (h *TripHandler) Delete(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	if err := h.trips.Delete(c.Request.Context(), tripID, currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(nethttp.StatusNoContent)
}

func (h *TripHandler) AddLocation(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	var body services.LocationInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	loc, err := h.trips.AddLocation(c.Request.Context(), tripID, currentUser(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusCreated, loc)
}

func (h *TripHandler) RemoveLocation(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	locationID, ok := uuidParam(c, "locationID")
	if !ok {
		badRequest(c, "invalid location id")
		return
	}
	if err := h.trips.RemoveLocation(c.Request.Context(), tripID, locationID, currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(nethttp.StatusNoContent)
}

type inviteUserBody struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (h *TripHandler) InviteUser(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	var body inviteUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.trips.InviteUser(c.Request.Context(), tripID, currentUser(c), body.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusCreated, p)
}

type respondBody struct {
	Accept *bool `json:"accept" binding:"required"`
}

func (h *TripHandler) Respond(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	var body respondBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.trips.Respond(c.Request.Context(), tripID, currentUser(c), *body.Accept)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, p)
}

func (h *TripHandler) RemoveParticipant(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	userID, ok := uuidParam(c, "userID")
	if !ok {
		badRequest(c, "invalid user id")
		return
	}
	if err := h.trips.RemoveParticipant(c.Request.Context(), tripID, currentUser(c), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(nethttp.StatusNoContent)
}

func (h *TripHandler) ListBits(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	bits, err := h.trips.ListBits(c.Request.Context(), tripID, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, bits)
}

type tripBitBody struct {
	Category models.TripBitCategory `json:"category"`
	Title    string                 `json:"title"`
	StartsAt *time.Time             `json:"starts_at"`
	EndsAt   *time.Time             `json:"ends_at"`
	Location string                 `json:"location"`
	Details  json.RawMessage        `json:"details"`
}

func (h *TripHandler) AddBit(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	var body tripBitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	bit, err := h.trips.AddBit(c.Request.Context(), tripID, currentUser(c), models.TripBit{
		Category: body.Category,
		Title:    body.Title,
		StartsAt: body.StartsAt,
		EndsAt:   body.EndsAt,
		Location: body.Location,
		Details:  body.Details,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusCreated, bit)
}

func (h *TripHandler) DeleteBit(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	bitID, ok := uuidParam(c, "bitID")
	if !ok {
		badRequest(c, "invalid bit id")
		return
	}
	if err := h.trips.DeleteBit(c.Request.Context(), tripID, bitID, currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(nethttp.StatusNoContent)
}
