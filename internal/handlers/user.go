package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"roamwyth/internal/repositories"
	"roamwyth/internal/services"
)

const avatarURLPrefix = "/uploads/avatars/"

const (
	maxAvatarBytes     = 5 << 20
	avatarFormOverhead = 64 << 10
)

var avatarExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

type UserHandler struct {
	profileService *services.ProfileService
	friends        *services.FriendService
	trips          *services.TripService
	profiles       repositories.ProfileRepository
	avatarDir      string
}

func NewUserHandler(profileService *services.ProfileService, friends *services.FriendService, trips *services.TripService, profiles repositories.ProfileRepository, avatarDir string) *UserHandler {
	return &UserHandler{
		profileService: profileService,
		friends:        friends,
		trips:          trips,
		profiles:       profiles,
		avatarDir:      avatarDir,
	}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID := currentUser(c)
	ctx := c.Request.Context()

	profile, err := h.profileService.Get(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	friends, err := h.friends.Friends(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	requests, err := h.friends.Requests(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(nethttp.StatusOK, gin.H{
		"id":                profile.ID,
		"username":          profile.Username,
		"full_name":         profile.FullName,
		"avatar_url":        profile.AvatarURL,
		"plan":              profile.Plan,
		"friends":           friends,
		"incoming_requests": requests.Incoming,
	})
}

func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid user id")
		return
	}
	profile, err := h.profileService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, profile)
}

func (h *UserHandler) Search(c *gin.Context) {
	results, err := h.profileService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, results)
}

// ListTrips shows another user's roster as their friend sees it.
func (h *UserHandler) ListTrips(c *gin.Context) {
	ownerID, ok := uuidParam(c, "id")
	if !ok {
		badRequest(c, "invalid user id")
		return
	}
	trips, err := h.trips.FriendRoster(c.Request.Context(), currentUser(c), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(nethttp.StatusOK, trips)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	userID := currentUser(c)

	c.Request.Body = nethttp.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarBytes+avatarFormOverhead)
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *nethttp.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(nethttp.StatusRequestEntityTooLarge, gin.H{"error": "avatar is too large"})
			return
		}
		badRequest(c, "missing file")
		return
	}
	if file.Size > maxAvatarBytes {
		c.JSON(nethttp.StatusRequestEntityTooLarge, gin.H{"error": "avatar is too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !avatarExtensions[ext] {
		badRequest(c, "unsupported image type")
		return
	}
	filename := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	userDir := filepath.Join(h.avatarDir, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to create upload directory"})
		return
	}

	dstPath := filepath.Join(userDir, filename)
	if err := c.SaveUploadedFile(file, dstPath); err != nil {
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	previous, _ := h.profiles.GetAvatarURL(c.Request.Context(), userID)
	avatarURL := avatarURLPrefix + userID.String() + "/" + filename
	if err := h.profiles.SetAvatarURL(c.Request.Context(), userID, avatarURL); err != nil {
		_ = os.Remove(dstPath)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to update avatar"})
		return
	}
	h.removeAvatarFile(previous)

	c.JSON(nethttp.StatusOK, gin.H{"avatar_url": avatarURL})
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	userID := currentUser(c)

	avatarURL, err := h.profiles.GetAvatarURL(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to fetch avatar"})
		return
	}
	h.removeAvatarFile(avatarURL)

	if err := h.profiles.ClearAvatarURL(c.Request.Context(), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(nethttp.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to clear avatar"})
		return
	}

	c.Status(nethttp.StatusNoContent)
}

// removeAvatarFile deletes a previously uploaded file. Paths that would
// escape the avatar directory are ignored.
func (h *UserHandler) removeAvatarFile(avatarURL string) {
	if !strings.HasPrefix(avatarURL, avatarURLPrefix) {
		return
	}
	rel := filepath.Clean(strings.TrimPrefix(avatarURL, avatarURLPrefix))
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return
	}
	_ = os.Remove(filepath.Join(h.avatarDir, rel))
}
