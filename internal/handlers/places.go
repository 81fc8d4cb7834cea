package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"roamwyth/internal/services"
)

type PlacesHandler struct {
	places  *services.PlacesClient
	scraper *services.MetadataScraper
}

func NewPlacesHandler(places *services.PlacesClient, scraper *services.MetadataScraper) *PlacesHandler {
	return &PlacesHandler{places: places, scraper: scraper}
}

func (h *PlacesHandler) Autocomplete(c *gin.Context) {
	predictions, err := h.places.Autocomplete(c.Request.Context(), c.Query("input"), c.Query("session"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"predictions": predictions})
}

func (h *PlacesHandler) Details(c *gin.Context) {
	details, err := h.places.Details(c.Request.Context(), c.Param("placeID"), c.Query("session"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, details)
}

// Metadata unfurls a pasted link into title, description and image.
func (h *PlacesHandler) Metadata(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		badRequest(c, "url is required")
		return
	}
	meta, err := h.scraper.Fetch(c.Request.Context(), raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, meta)
}
