package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roamwyth/internal/metrics"
	"roamwyth/internal/mocks"
	"roamwyth/internal/models"
	"roamwyth/internal/repositories"
	"roamwyth/internal/services"
)

type inviteFixture struct {
	invites  *mocks.MockInviteRepository
	trips    *mocks.MockTripRepository
	profiles *mocks.MockProfileRepository
	router   *gin.Engine
}

func newInviteFixture(userID uuid.UUID) *inviteFixture {
	f := &inviteFixture{
		invites:  new(mocks.MockInviteRepository),
		trips:    new(mocks.MockTripRepository),
		profiles: new(mocks.MockProfileRepository),
	}
	svc := services.NewInviteService(f.invites, f.trips, f.profiles, nil, nil, "https://app.example.com/")
	handler := NewInviteHandler(svc, nil)

	f.router = newTestRouter()
	f.router.GET("/invites/:code", handler.Preview)
	f.router.GET("/i/:code", handler.PreviewPage)
	auth := f.router.Group("", asUser(userID))
	auth.POST("/invites/:code/accept", handler.Accept)
	auth.POST("/trips/:id/invites/:inviteID/email", handler.EmailLink)
	return f
}

func TestAcceptInvite(t *testing.T) {
	guest := uuid.New()
	f := newInviteFixture(guest)
	trip := &models.Trip{ID: uuid.New(), OwnerID: uuid.New(), Name: "Lisbon"}
	link := &models.InviteLink{ID: uuid.New(), TripID: trip.ID, Code: "lisbon-1a2b3c4d"}

	f.invites.On("GetByCode", mock.Anything, link.Code).Return(link, nil)
	f.trips.On("GetByID", mock.Anything, trip.ID).Return(trip, nil)
	f.invites.On("Accept", mock.Anything, link.ID, guest, mock.AnythingOfType("time.Time")).Return(&repositories.AcceptOutcome{
		Participant: models.TripParticipant{TripID: trip.ID, UserID: guest, Status: models.ParticipantAccepted},
		Joined:      true,
		UsageCount:  1,
	}, nil)

	rec := doJSON(f.router, http.MethodPost, "/invites/"+link.Code+"/accept", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"trip_id":"`+trip.ID.String()+`","status":"accepted","already_member":false}`, rec.Body.String())
}

func TestAcceptInviteErrors(t *testing.T) {
	f := newInviteFixture(uuid.New())
	expired := time.Now().Add(-time.Hour)
	f.invites.On("GetByCode", mock.Anything, "gone-00000000").Return(nil, sql.ErrNoRows)
	f.invites.On("GetByCode", mock.Anything, "old-00000000").Return(&models.InviteLink{ID: uuid.New(), ExpiresAt: &expired}, nil)

	require.Equal(t, http.StatusBadRequest, doJSON(f.router, http.MethodPost, "/invites/NOT%20OK/accept", "").Code)
	require.Equal(t, http.StatusNotFound, doJSON(f.router, http.MethodPost, "/invites/gone-00000000/accept", "").Code)
	require.Equal(t, http.StatusGone, doJSON(f.router, http.MethodPost, "/invites/old-00000000/accept", "").Code)
	f.invites.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptInviteUnauthenticated(t *testing.T) {
	metrics.RegisterSocialMetrics()
	svc := services.NewInviteService(new(mocks.MockInviteRepository), new(mocks.MockTripRepository), new(mocks.MockProfileRepository), nil, nil, "")
	router := newTestRouter()
	router.POST("/invites/:code/accept", NewInviteHandler(svc, nil).Accept)

	assertMetricIncrement(t, router, `trip_invite_accepts_total{status="failed"}`, func() {
		rec := doJSON(router, http.MethodPost, "/invites/lisbon-1a2b3c4d/accept", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPreviewPage(t *testing.T) {
	f := newInviteFixture(uuid.New())
	owner := uuid.New()
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 9, 0, 0, 0, 0, time.UTC)
	trip := &models.Trip{
		ID:         uuid.New(),
		OwnerID:    owner,
		Name:       `Tom & Jerry's <trip>`,
		Visibility: models.VisibilityFullDetails,
		StartDate:  &start,
		EndDate:    &end,
		Locations:  []models.TripLocation{{Name: "Porto", Country: "Portugal"}},
	}
	link := &models.InviteLink{ID: uuid.New(), TripID: trip.ID, Code: "tom-jerry-1a2b3c4d"}
	f.invites.On("GetByCode", mock.Anything, link.Code).Return(link, nil)
	f.trips.On("GetByID", mock.Anything, trip.ID).Return(trip, nil)
	f.profiles.On("GetByID", mock.Anything, owner).Return(&models.Profile{ID: owner, Username: "ana"}, nil)

	rec := doJSON(f.router, http.MethodGet, "/i/"+link.Code, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	body := rec.Body.String()
	require.Contains(t, body, `<meta property="og:title" content="ana invited you to Tom &amp; Jerry&#39;s &lt;trip&gt;">`)
	require.Contains(t, body, `content="Join the trip to Porto, Portugal, Jul 1 - Jul 9, 2026."`)
	require.Contains(t, body, `<meta property="og:url" content="https://app.example.com/i/`+link.Code+`">`)
	require.Contains(t, body, "https://app.example.com/join/"+link.Code)
	require.NotContains(t, body, "<trip>")
}

func TestPreviewPageHidesBusyTrip(t *testing.T) {
	f := newInviteFixture(uuid.New())
	owner := uuid.New()
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 9, 0, 0, 0, 0, time.UTC)
	trip := &models.Trip{
		ID:         uuid.New(),
		OwnerID:    owner,
		Name:       "Secret Porto",
		Visibility: models.VisibilityBusyOnly,
		StartDate:  &start,
		EndDate:    &end,
		Locations:  []models.TripLocation{{Name: "Porto", Country: "Portugal"}},
	}
	link := &models.InviteLink{ID: uuid.New(), TripID: trip.ID, Code: "secret-porto-1a2b3c4d"}
	f.invites.On("GetByCode", mock.Anything, link.Code).Return(link, nil)
	f.trips.On("GetByID", mock.Anything, trip.ID).Return(trip, nil)
	f.profiles.On("GetByID", mock.Anything, owner).Return(&models.Profile{ID: owner, Username: "ana"}, nil)

	rec := doJSON(f.router, http.MethodGet, "/i/"+link.Code, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "Secret Porto")
	require.NotContains(t, rec.Body.String(), "Portugal")

	rec = doJSON(f.router, http.MethodGet, "/invites/"+link.Code, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"trip_name":"Busy"`)
	require.Contains(t, rec.Body.String(), `"destination":""`)
}

func TestPreviewPageUnknownAndExpired(t *testing.T) {
	f := newInviteFixture(uuid.New())
	f.invites.On("GetByCode", mock.Anything, "missing-00000000").Return(nil, sql.ErrNoRows)

	rec := doJSON(f.router, http.MethodGet, "/i/missing-00000000", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Invite not found")
	require.NotContains(t, rec.Body.String(), "http-equiv")

	rec = doJSON(f.router, http.MethodGet, "/i/x", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	owner := uuid.New()
	expired := time.Now().Add(-time.Minute)
	trip := &models.Trip{ID: uuid.New(), OwnerID: owner, Name: "Oslo", Visibility: models.VisibilityFullDetails}
	link := &models.InviteLink{ID: uuid.New(), TripID: trip.ID, Code: "oslo-1a2b3c4d", ExpiresAt: &expired}
	f.invites.On("GetByCode", mock.Anything, link.Code).Return(link, nil)
	f.trips.On("GetByID", mock.Anything, trip.ID).Return(trip, nil)
	f.profiles.On("GetByID", mock.Anything, owner).Return(nil, sql.ErrNoRows)

	rec = doJSON(f.router, http.MethodGet, "/i/"+link.Code, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "This invite link has expired.")

	rec = doJSON(f.router, http.MethodGet, "/invites/"+link.Code, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"expired":true`)
}

func TestEmailLinkWithoutMailer(t *testing.T) {
	f := newInviteFixture(uuid.New())
	rec := doJSON(f.router, http.MethodPost, "/trips/"+uuid.NewString()+"/invites/"+uuid.NewString()+"/email", `{"email":"friend@example.com"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
