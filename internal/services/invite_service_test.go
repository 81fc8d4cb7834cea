package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roamwyth/internal/mailer"
	"roamwyth/internal/mocks"
	"roamwyth/internal/models"
	"roamwyth/internal/telemetry"
)

type inviteFixture struct {
	store     *memStore
	publisher *recordingPublisher
	invites   *InviteService
	trips     *TripService
	ownerID   uuid.UUID
	guestID   uuid.UUID
	trip      *models.Trip
}

func newInviteFixture(t *testing.T) *inviteFixture {
	t.Helper()
	store := newMemStore()
	pub := &recordingPublisher{}
	f := &inviteFixture{
		store:     store,
		publisher: pub,
		invites:   NewInviteService(memInvites{store}, memTrips{store}, memProfiles{store}, pub, nil, "https://app.example.com/"),
		trips:     NewTripService(memTrips{store}, nil, nil, memProfiles{store}, pub),
		ownerID:   store.addProfile("ana"),
		guestID:   store.addProfile("ben"),
	}
	trip, err := f.trips.Create(context.Background(), f.ownerID, TripInput{
		Name:      "Lisbon Summer",
		Locations: []LocationInput{{Name: "Lisbon", Country: "Portugal"}},
	})
	require.NoError(t, err)
	f.trip = trip
	return f
}

func (f *inviteFixture) link(t *testing.T, opts CreateLinkOptions) *models.InviteLink {
	t.Helper()
	link, err := f.invites.CreateLink(context.Background(), f.trip.ID, f.ownerID, opts)
	require.NoError(t, err)
	return link
}

func TestAcceptRejectsMalformedCode(t *testing.T) {
	f := newInviteFixture(t)

	for _, code := range []string{"", "   ", "abc", "UPPER/../path", strings.Repeat("a", 81)} {
		_, err := f.invites.Accept(context.Background(), code, f.guestID)
		require.ErrorIs(t, err, ErrBadRequest, code)
	}
}

func TestAcceptRequiresUser(t *testing.T) {
	f := newInviteFixture(t)
	_, err := f.invites.Accept(context.Background(), "lisbon-summer-1234abcd", uuid.Nil)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAcceptUnknownCode(t *testing.T) {
	f := newInviteFixture(t)
	_, err := f.invites.Accept(context.Background(), "nobody-knows-me", f.guestID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptExpiredInviteWritesNothing(t *testing.T) {
	f := newInviteFixture(t)
	hour := time.Hour
	link := f.link(t, CreateLinkOptions{ExpiresIn: &hour})

	f.invites.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	before := f.store.writeCount()

	_, err := f.invites.Accept(context.Background(), link.Code, f.guestID)
	require.ErrorIs(t, err, ErrExpired)
	require.Equal(t, before, f.store.writeCount())

	_, err = memTrips{f.store}.GetParticipant(context.Background(), f.trip.ID, f.guestID)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAcceptIsIdempotent(t *testing.T) {
	f := newInviteFixture(t)
	link := f.link(t, CreateLinkOptions{})

	first, err := f.invites.Accept(context.Background(), link.Code, f.guestID)
	require.NoError(t, err)
	require.False(t, first.AlreadyMember)
	require.Equal(t, models.ParticipantAccepted, first.Status)

	second, err := f.invites.Accept(context.Background(), link.Code, f.guestID)
	require.NoError(t, err)
	require.True(t, second.AlreadyMember)

	stored, err := memInvites{f.store}.GetByCode(context.Background(), link.Code)
	require.NoError(t, err)
	require.Equal(t, 1, stored.UsageCount)
	require.Equal(t, 1, f.publisher.count(telemetry.EventParticipantJoined))
}

func TestConcurrentAcceptsIncrementUsageOnce(t *testing.T) {
	f := newInviteFixture(t)
	link := f.link(t, CreateLinkOptions{})

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.invites.Accept(context.Background(), link.Code, f.guestID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := memInvites{f.store}.GetByCode(context.Background(), link.Code)
	require.NoError(t, err)
	require.Equal(t, 1, stored.UsageCount)
}

func TestAcceptExhaustedInvite(t *testing.T) {
	f := newInviteFixture(t)
	one := 1
	link := f.link(t, CreateLinkOptions{MaxUses: &one})

	_, err := f.invites.Accept(context.Background(), link.Code, f.guestID)
	require.NoError(t, err)

	third := f.store.addProfile("cleo")
	_, err = f.invites.Accept(context.Background(), link.Code, third)
	require.ErrorIs(t, err, ErrExpired)

	// The member who already joined can still open the link.
	again, err := f.invites.Accept(context.Background(), link.Code, f.guestID)
	require.NoError(t, err)
	require.True(t, again.AlreadyMember)
}

func TestOwnerAcceptingOwnInviteWritesNothing(t *testing.T) {
	f := newInviteFixture(t)
	link := f.link(t, CreateLinkOptions{})
	before := f.store.writeCount()

	res, err := f.invites.Accept(context.Background(), link.Code, f.ownerID)
	require.NoError(t, err)
	require.True(t, res.AlreadyMember)
	require.Equal(t, before, f.store.writeCount())
}

func TestCreateLinkCodeShape(t *testing.T) {
	f := newInviteFixture(t)
	link := f.link(t, CreateLinkOptions{})

	require.True(t, strings.HasPrefix(link.Code, "lisbon-summer-"))
	require.Regexp(t, `^[a-z0-9-]{6,80}$`, link.Code)
	require.Len(t, strings.TrimPrefix(link.Code, "lisbon-summer-"), 8)
}

func TestNewInviteCodeTruncatesLongNames(t *testing.T) {
	code := newInviteCode("An extremely long trip name that keeps going and going")
	require.LessOrEqual(t, len(code), maxSlugLength+9)
	require.Regexp(t, `^[a-z0-9]([a-z0-9-]*[a-z0-9])?-[0-9a-f]{8}$`, code)

	require.Regexp(t, `^trip-[0-9a-f]{8}$`, newInviteCode("!!!"))
}

func TestCreateLinkOwnerOnly(t *testing.T) {
	f := newInviteFixture(t)
	_, err := f.invites.CreateLink(context.Background(), f.trip.ID, f.guestID, CreateLinkOptions{})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCreateLinkValidatesOptions(t *testing.T) {
	f := newInviteFixture(t)
	zero := 0
	_, err := f.invites.CreateLink(context.Background(), f.trip.ID, f.ownerID, CreateLinkOptions{MaxUses: &zero})
	require.ErrorIs(t, err, ErrBadRequest)

	_, err = f.invites.CreateLink(context.Background(), f.trip.ID, f.ownerID, CreateLinkOptions{LocationIDs: []uuid.UUID{uuid.New()}})
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestPreview(t *testing.T) {
	f := newInviteFixture(t)
	link := f.link(t, CreateLinkOptions{})

	preview, err := f.invites.Preview(context.Background(), link.Code)
	require.NoError(t, err)
	require.Equal(t, "Lisbon Summer", preview.TripName)
	require.Equal(t, "Lisbon, Portugal", preview.Destination)
	require.Equal(t, "ana", preview.OwnerUsername)
	require.False(t, preview.Expired)
	require.Equal(t, "https://app.example.com/join/"+link.Code, preview.JoinURL)
}

func TestPreviewAppliesTripVisibility(t *testing.T) {
	month := "2026-07"
	cases := []struct {
		visibility  models.Visibility
		name        string
		destination string
		dated       bool
	}{
		{models.VisibilityFullDetails, "Lisbon Summer", "Lisbon, Portugal", true},
		{models.VisibilityDatesOnly, "Lisbon Summer", "", true},
		{models.VisibilityLocationOnly, "Lisbon Summer", "Lisbon, Portugal", false},
		{models.VisibilityBusyOnly, "Busy", "", true},
		{models.VisibilityOnlyMe, "Busy", "", false},
	}
	for _, tc := range cases {
		t.Run(string(tc.visibility), func(t *testing.T) {
			f := newInviteFixture(t)
			trip, err := f.trips.Create(context.Background(), f.ownerID, TripInput{
				Name:          "Lisbon Summer",
				Visibility:    tc.visibility,
				StartDate:     date("2026-07-01"),
				EndDate:       date("2026-07-08"),
				FlexibleMonth: &month,
				Locations:     []LocationInput{{Name: "Lisbon", Country: "Portugal"}},
			})
			require.NoError(t, err)
			link, err := f.invites.CreateLink(context.Background(), trip.ID, f.ownerID, CreateLinkOptions{})
			require.NoError(t, err)

			preview, err := f.invites.Preview(context.Background(), link.Code)
			require.NoError(t, err)
			require.Equal(t, tc.name, preview.TripName)
			require.Equal(t, tc.destination, preview.Destination)
			if tc.dated {
				require.NotNil(t, preview.StartDate)
				require.NotNil(t, preview.EndDate)
			} else {
				require.Nil(t, preview.StartDate)
				require.Nil(t, preview.EndDate)
				require.Nil(t, preview.FlexibleMonth)
			}
			require.Equal(t, "ana", preview.OwnerUsername)
			if tc.name == "Busy" {
				require.NotContains(t, link.Code, "lisbon")
			}
		})
	}
}

func TestPreviewMarksExpired(t *testing.T) {
	f := newInviteFixture(t)
	minute := time.Minute
	link := f.link(t, CreateLinkOptions{ExpiresIn: &minute})
	f.invites.now = func() time.Time { return time.Now().Add(time.Hour) }

	preview, err := f.invites.Preview(context.Background(), link.Code)
	require.NoError(t, err)
	require.True(t, preview.Expired)
}

func TestAcceptPropagatesStoreErrors(t *testing.T) {
	invites := new(mocks.MockInviteRepository)
	trips := new(mocks.MockTripRepository)
	svc := NewInviteService(invites, trips, new(mocks.MockProfileRepository), nil, nil, "")

	boom := errors.New("connection reset")
	invites.On("GetByCode", mock.Anything, "lisbon-1234abcd").Return(nil, boom)

	_, err := svc.Accept(context.Background(), "lisbon-1234abcd", uuid.New())
	require.ErrorIs(t, err, boom)
	require.False(t, errors.Is(err, ErrNotFound))
	trips.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

type capturingSender struct {
	address, subject, body string
	err                    error
}

func (s *capturingSender) Send(address, subject, body string) error {
	s.address, s.subject, s.body = address, subject, body
	return s.err
}

func TestEmailLinkSanitisesBody(t *testing.T) {
	f := newInviteFixture(t)
	sender := &capturingSender{}
	f.invites.mail = sender

	trip := f.store.trips[f.trip.ID]
	trip.Description = `Beaches <script>alert(1)</script>`
	f.store.trips[f.trip.ID] = trip
	link := f.link(t, CreateLinkOptions{})

	err := f.invites.EmailLink(context.Background(), f.trip.ID, link.ID, f.ownerID, "Friend <Friend@Example.com>")
	require.NoError(t, err)
	require.Equal(t, "friend@example.com", sender.address)
	require.Contains(t, sender.subject, "Lisbon Summer")
	require.Contains(t, sender.body, "https://app.example.com/i/"+link.Code)
	require.NotContains(t, sender.body, "<script>")
}

func TestEmailLinkWithoutMailer(t *testing.T) {
	f := newInviteFixture(t)
	link := f.link(t, CreateLinkOptions{})

	err := f.invites.EmailLink(context.Background(), f.trip.ID, link.ID, f.ownerID, "friend@example.com")
	require.ErrorIs(t, err, ErrServiceUnavailable)

	f.invites.mail = mailer.NoEmail{}
	err = f.invites.EmailLink(context.Background(), f.trip.ID, link.ID, f.ownerID, "friend@example.com")
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestEmailLinkRejectsBadAddress(t *testing.T) {
	f := newInviteFixture(t)
	f.invites.mail = &capturingSender{}
	link := f.link(t, CreateLinkOptions{})

	err := f.invites.EmailLink(context.Background(), f.trip.ID, link.ID, f.ownerID, "not an address")
	require.ErrorIs(t, err, ErrBadRequest)
}
