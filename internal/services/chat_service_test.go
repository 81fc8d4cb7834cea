package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roamwyth/internal/mocks"
	"roamwyth/internal/models"
	"roamwyth/internal/telemetry"
)

func chatTrip(owner uuid.UUID, members ...uuid.UUID) *models.Trip {
	trip := &models.Trip{ID: uuid.New(), OwnerID: owner}
	for _, m := range members {
		trip.Participants = append(trip.Participants, models.TripParticipant{TripID: trip.ID, UserID: m, Status: models.ParticipantAccepted})
	}
	return trip
}

func TestSendPublishesToOtherMembers(t *testing.T) {
	trips := new(mocks.MockTripRepository)
	messages := new(mocks.MockMessageRepository)
	pub := new(mocks.MockPublisher)
	svc := NewChatService(trips, messages, pub)

	owner, member := uuid.New(), uuid.New()
	trip := chatTrip(owner, member)
	created := &models.Message{ID: uuid.New(), TripID: trip.ID, SenderID: member, Body: "hi", CreatedAt: time.Now()}

	trips.On("GetByID", mock.Anything, trip.ID).Return(trip, nil)
	messages.On("Create", mock.Anything, trip.ID, member, "hi").Return(created, nil)
	messages.On("MarkRead", mock.Anything, trip.ID, member, created.CreatedAt).Return(nil)
	pub.On("Publish", mock.Anything, telemetry.EventMessageCreated, mock.MatchedBy(func(e telemetry.MessageEvent) bool {
		return len(e.Recipients) == 1 && e.Recipients[0] == owner
	})).Return(nil)

	msg, err := svc.Send(context.Background(), trip.ID, member, "  hi  ")
	require.NoError(t, err)
	require.Equal(t, created.ID, msg.ID)
	pub.AssertExpectations(t)
	messages.AssertExpectations(t)
}

func TestSendValidation(t *testing.T) {
	trips := new(mocks.MockTripRepository)
	svc := NewChatService(trips, new(mocks.MockMessageRepository), nil)
	owner := uuid.New()
	trip := chatTrip(owner)
	trips.On("GetByID", mock.Anything, trip.ID).Return(trip, nil)

	_, err := svc.Send(context.Background(), trip.ID, owner, "   ")
	require.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.Send(context.Background(), trip.ID, owner, strings.Repeat("x", maxMessageLength+1))
	require.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.Send(context.Background(), trip.ID, uuid.New(), "hello")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestListClampsLimit(t *testing.T) {
	trips := new(mocks.MockTripRepository)
	messages := new(mocks.MockMessageRepository)
	svc := NewChatService(trips, messages, nil)
	owner := uuid.New()
	trip := chatTrip(owner)
	trips.On("GetByID", mock.Anything, trip.ID).Return(trip, nil)
	messages.On("List", mock.Anything, trip.ID, (*time.Time)(nil), maxMessagePage).Return([]models.Message{}, nil)
	messages.On("List", mock.Anything, trip.ID, (*time.Time)(nil), defaultMessagePage).Return([]models.Message{}, nil)

	_, err := svc.List(context.Background(), trip.ID, owner, nil, 5000)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), trip.ID, owner, nil, 0)
	require.NoError(t, err)
	messages.AssertExpectations(t)
}

func TestUnreadTotals(t *testing.T) {
	messages := new(mocks.MockMessageRepository)
	svc := NewChatService(nil, messages, nil)
	me := uuid.New()
	messages.On("UnreadCounts", mock.Anything, me).Return([]models.UnreadCount{
		{TripID: uuid.New(), Count: 3},
		{TripID: uuid.New(), Count: 0},
		{TripID: uuid.New(), Count: 4},
	}, nil)

	summary, err := svc.Unread(context.Background(), me)
	require.NoError(t, err)
	require.Equal(t, 7, summary.Total)
	require.Len(t, summary.Trips, 3)
}
