package handlers

import (
	"context"
	"html/template"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"roamwyth/internal/metrics"
	"roamwyth/internal/services"
	"roamwyth/internal/telemetry"
)

type InviteHandler struct {
	invites *services.InviteService
	audit   *telemetry.AuditEmitter
}

func NewInviteHandler(invites *services.InviteService, audit *telemetry.AuditEmitter) *InviteHandler {
	return &InviteHandler{invites: invites, audit: audit}
}

func (h *InviteHandler) Accept(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)
	ctx := c.Request.Context()
	if userID == nil {
		metrics.IncInviteAccept(metrics.StatusFailed)
		c.JSON(nethttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.invites.Accept(ctx, c.Param("code"), *userID)
	if err != nil {
		h.emitAudit(ctx, telemetry.LevelError, "invite.accept", err.Error(), requestID, userID)
		metrics.IncInviteAccept(metrics.StatusFailed)
		respondError(c, err)
		return
	}

	if !res.AlreadyMember {
		h.emitAudit(ctx, telemetry.LevelInfo, "invite.accept", "Joined trip '"+res.TripID.String()+"'", requestID, userID)
	}
	metrics.IncInviteAccept(metrics.StatusSuccess)
	c.JSON(nethttp.StatusOK, res)
}

type createLinkBody struct {
	ExpiresInHours *int        `json:"expires_in_hours"`
	MaxUses        *int        `json:"max_uses"`
	LocationIDs    []uuid.UUID `json:"location_ids"`
	TripBitIDs     []uuid.UUID `json:"tripbit_ids"`
}

func (h *InviteHandler) CreateLink(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	var body createLinkBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	opts := services.CreateLinkOptions{
		MaxUses:     body.MaxUses,
		LocationIDs: body.LocationIDs,
		TripBitIDs:  body.TripBitIDs,
	}
	if body.ExpiresInHours != nil {
		d := time.Duration(*body.ExpiresInHours) * time.Hour
		opts.ExpiresIn = &d
	}

	link, err := h.invites.CreateLink(c.Request.Context(), tripID, currentUser(c), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusCreated, gin.H{
		"invite":      link,
		"join_url":    h.invites.JoinURL(link.Code),
		"preview_url": h.invites.PreviewURL(link.Code),
	})
}

func (h *InviteHandler) ListLinks(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	links, err := h.invites.ListLinks(c.Request.Context(), tripID, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, links)
}

func (h *InviteHandler) RevokeLink(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	inviteID, ok := uuidParam(c, "inviteID")
	if !ok {
		badRequest(c, "invalid invite id")
		return
	}
	if err := h.invites.RevokeLink(c.Request.Context(), tripID, inviteID, currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(nethttp.StatusNoContent)
}

type emailLinkBody struct {
	Email string `json:"email" binding:"required"`
}

func (h *InviteHandler) EmailLink(c *gin.Context) {
	tripID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid trip id")
		return
	}
	inviteID, ok := uuidParam(c, "inviteID")
	if !ok {
		badRequest(c, "invalid invite id")
		return
	}
	var body emailLinkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	userID := currentUser(c)
	ctx := c.Request.Context()
	if err := h.invites.EmailLink(ctx, tripID, inviteID, userID, body.Email); err != nil {
		respondError(c, err)
		return
	}
	h.emitAudit(ctx, telemetry.LevelInfo, "invite.email", "Invite '"+inviteID.String()+"' emailed", requestIDFromHeader(c), &userID)
	c.JSON(nethttp.StatusAccepted, gin.H{"status": "sent"})
}

// Preview is the public JSON used by the join screen.
func (h *InviteHandler) Preview(c *gin.Context) {
	preview, err := h.invites.Preview(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, preview)
}

var previewPage = template.Must(template.New("preview").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta property="og:type" content="website">
<meta property="og:site_name" content="Roamwyth">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:url" content="{{.URL}}">
<meta name="twitter:card" content="summary">
{{if .JoinURL}}<meta http-equiv="refresh" content="0; url={{.JoinURL}}">{{end}}
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Description}}</p>
{{if .JoinURL}}<p><a href="{{.JoinURL}}">Open the invite</a></p>{{end}}
</body>
</html>
`))

type previewPageData struct {
	Title       string
	Description string
	URL         string
	JoinURL     string
}

// PreviewPage serves link unfurlers an Open Graph card and sends browsers on
// to the app's join screen.
func (h *InviteHandler) PreviewPage(c *gin.Context) {
	code := c.Param("code")
	preview, err := h.invites.Preview(c.Request.Context(), code)
	if err != nil {
		status := statusFor(err)
		if status == nethttp.StatusInternalServerError {
			log.Printf("invite preview %s: %v", code, err)
			h.renderPreview(c, status, previewPageData{Title: "Roamwyth", Description: "Something went wrong. Try again later."})
			return
		}
		h.renderPreview(c, nethttp.StatusNotFound, previewPageData{
			Title:       "Invite not found",
			Description: "This invite link does not exist or has been revoked.",
		})
		return
	}

	data := previewPageData{
		Title:   preview.TripName,
		URL:     h.invites.PreviewURL(preview.Code),
		JoinURL: preview.JoinURL,
	}
	if preview.OwnerUsername != "" {
		data.Title = preview.OwnerUsername + " invited you to " + preview.TripName
	}
	if preview.Expired {
		data.Description = "This invite link has expired."
	} else {
		data.Description = describeTrip(preview)
	}
	h.renderPreview(c, nethttp.StatusOK, data)
}

func (h *InviteHandler) renderPreview(c *gin.Context, status int, data previewPageData) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := previewPage.Execute(c.Writer, data); err != nil {
		_ = c.Error(err)
	}
}

func describeTrip(p *services.InvitePreview) string {
	desc := "Join the trip"
	if p.Destination != "" {
		desc += " to " + p.Destination
	}
	switch {
	case p.StartDate != nil && p.EndDate != nil:
		desc += ", " + p.StartDate.Format("Jan 2") + " - " + p.EndDate.Format("Jan 2, 2006")
	case p.StartDate != nil:
		desc += ", from " + p.StartDate.Format("Jan 2, 2006")
	case p.FlexibleMonth != nil:
		if month, err := time.Parse("2006-01", *p.FlexibleMonth); err == nil {
			desc += ", sometime in " + month.Format("January 2006")
		}
	}
	return desc + "."
}

func (h *InviteHandler) emitAudit(ctx context.Context, level, action, text, requestID string, userID *uuid.UUID) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(ctx, level, action, text, requestID, userID)
}
