package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"roamwyth/internal/models"
	"roamwyth/internal/rabbitmq"
	"roamwyth/internal/repositories"
)

// MockFriendRepository mocks FriendRepository behavior for handlers and services.
type MockFriendRepository struct {
	mock.Mock
}

func (m *MockFriendRepository) Request(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error) {
	args := m.Called(ctx, requesterID, addresseeID)
	var f *models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(*models.Friendship)
	}
	return f, args.Error(1)
}

func (m *MockFriendRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	args := m.Called(ctx, id)
	var f *models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(*models.Friendship)
	}
	return f, args.Error(1)
}

func (m *MockFriendRepository) Respond(ctx context.Context, id, userID uuid.UUID, status models.FriendshipStatus) (*models.Friendship, error) {
	args := m.Called(ctx, id, userID, status)
	var f *models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(*models.Friendship)
	}
	return f, args.Error(1)
}

func (m *MockFriendRepository) Delete(ctx context.Context, id, userID uuid.UUID) (*models.Friendship, error) {
	args := m.Called(ctx, id, userID)
	var f *models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(*models.Friendship)
	}
	return f, args.Error(1)
}

func (m *MockFriendRepository) ListPending(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	args := m.Called(ctx, userID)
	var rows []models.Friendship
	if val := args.Get(0); val != nil {
		rows = val.([]models.Friendship)
	}
	return rows, args.Error(1)
}

func (m *MockFriendRepository) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	var ids []uuid.UUID
	if val := args.Get(0); val != nil {
		ids = val.([]uuid.UUID)
	}
	return ids, args.Error(1)
}

func (m *MockFriendRepository) AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

var _ repositories.FriendRepository = (*MockFriendRepository)(nil)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	var p *models.Profile
	if val := args.Get(0); val != nil {
		p = val.(*models.Profile)
	}
	return p, args.Error(1)
}

func (m *MockProfileRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error) {
	args := m.Called(ctx, ids)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *MockProfileRepository) Search(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	args := m.Called(ctx, query, limit)
	var profiles []models.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]models.Profile)
	}
	return profiles, args.Error(1)
}

func (m *MockProfileRepository) GetAvatarURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockProfileRepository) SetAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return m.Called(ctx, id, avatarURL).Error(0)
}

func (m *MockProfileRepository) ClearAvatarURL(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProfileRepository) SetPlan(ctx context.Context, id uuid.UUID, plan models.Plan) error {
	return m.Called(ctx, id, plan).Error(0)
}

var _ repositories.ProfileRepository = (*MockProfileRepository)(nil)

type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) Create(ctx context.Context, trip *models.Trip, locations []models.TripLocation) (*models.Trip, error) {
	args := m.Called(ctx, trip, locations)
	var t *models.Trip
	if val := args.Get(0); val != nil {
		t = val.(*models.Trip)
	}
	return t, args.Error(1)
}

func (m *MockTripRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	args := m.Called(ctx, id)
	var t *models.Trip
	if val := args.Get(0); val != nil {
		t = val.(*models.Trip)
	}
	return t, args.Error(1)
}

func (m *MockTripRepository) Update(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	args := m.Called(ctx, trip)
	var t *models.Trip
	if val := args.Get(0); val != nil {
		t = val.(*models.Trip)
	}
	return t, args.Error(1)
}

func (m *MockTripRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTripRepository) ListRoster(ctx context.Context, userID uuid.UUID) (*repositories.RosterRows, error) {
	args := m.Called(ctx, userID)
	var rows *repositories.RosterRows
	if val := args.Get(0); val != nil {
		rows = val.(*repositories.RosterRows)
	}
	return rows, args.Error(1)
}

func (m *MockTripRepository) AddLocation(ctx context.Context, loc *models.TripLocation) (*models.TripLocation, error) {
	args := m.Called(ctx, loc)
	var l *models.TripLocation
	if val := args.Get(0); val != nil {
		l = val.(*models.TripLocation)
	}
	return l, args.Error(1)
}

func (m *MockTripRepository) DeleteLocation(ctx context.Context, tripID, locationID uuid.UUID) error {
	return m.Called(ctx, tripID, locationID).Error(0)
}

func (m *MockTripRepository) GetParticipant(ctx context.Context, tripID, userID uuid.UUID) (*models.TripParticipant, error) {
	args := m.Called(ctx, tripID, userID)
	var p *models.TripParticipant
	if val := args.Get(0); val != nil {
		p = val.(*models.TripParticipant)
	}
	return p, args.Error(1)
}

func (m *MockTripRepository) InviteParticipant(ctx context.Context, tripID, userID, invitedBy uuid.UUID) (*models.TripParticipant, error) {
	args := m.Called(ctx, tripID, userID, invitedBy)
	var p *models.TripParticipant
	if val := args.Get(0); val != nil {
		p = val.(*models.TripParticipant)
	}
	return p, args.Error(1)
}

func (m *MockTripRepository) RespondToInvite(ctx context.Context, tripID, userID uuid.UUID, accept bool) (*models.TripParticipant, error) {
	args := m.Called(ctx, tripID, userID, accept)
	var p *models.TripParticipant
	if val := args.Get(0); val != nil {
		p = val.(*models.TripParticipant)
	}
	return p, args.Error(1)
}

func (m *MockTripRepository) RemoveParticipant(ctx context.Context, tripID, userID uuid.UUID) error {
	return m.Called(ctx, tripID, userID).Error(0)
}

func (m *MockTripRepository) MemberIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, tripID)
	var ids []uuid.UUID
	if val := args.Get(0); val != nil {
		ids = val.([]uuid.UUID)
	}
	return ids, args.Error(1)
}

var _ repositories.TripRepository = (*MockTripRepository)(nil)

type MockInviteRepository struct {
	mock.Mock
}

func (m *MockInviteRepository) Create(ctx context.Context, link *models.InviteLink) (*models.InviteLink, error) {
	args := m.Called(ctx, link)
	var l *models.InviteLink
	if val := args.Get(0); val != nil {
		l = val.(*models.InviteLink)
	}
	return l, args.Error(1)
}

func (m *MockInviteRepository) GetByCode(ctx context.Context, code string) (*models.InviteLink, error) {
	args := m.Called(ctx, code)
	var l *models.InviteLink
	if val := args.Get(0); val != nil {
		l = val.(*models.InviteLink)
	}
	return l, args.Error(1)
}

func (m *MockInviteRepository) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.InviteLink, error) {
	args := m.Called(ctx, tripID)
	var links []models.InviteLink
	if val := args.Get(0); val != nil {
		links = val.([]models.InviteLink)
	}
	return links, args.Error(1)
}

func (m *MockInviteRepository) Delete(ctx context.Context, tripID, inviteID uuid.UUID) error {
	return m.Called(ctx, tripID, inviteID).Error(0)
}

func (m *MockInviteRepository) Accept(ctx context.Context, inviteID, userID uuid.UUID, now time.Time) (*repositories.AcceptOutcome, error) {
	args := m.Called(ctx, inviteID, userID, now)
	var o *repositories.AcceptOutcome
	if val := args.Get(0); val != nil {
		o = val.(*repositories.AcceptOutcome)
	}
	return o, args.Error(1)
}

var _ repositories.InviteRepository = (*MockInviteRepository)(nil)

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, tripID, senderID uuid.UUID, body string) (*models.Message, error) {
	args := m.Called(ctx, tripID, senderID, body)
	var msg *models.Message
	if val := args.Get(0); val != nil {
		msg = val.(*models.Message)
	}
	return msg, args.Error(1)
}

func (m *MockMessageRepository) List(ctx context.Context, tripID uuid.UUID, before *time.Time, limit int) ([]models.Message, error) {
	args := m.Called(ctx, tripID, before, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, tripID, userID uuid.UUID, at time.Time) error {
	return m.Called(ctx, tripID, userID, at).Error(0)
}

func (m *MockMessageRepository) UnreadCounts(ctx context.Context, userID uuid.UUID) ([]models.UnreadCount, error) {
	args := m.Called(ctx, userID)
	var counts []models.UnreadCount
	if val := args.Get(0); val != nil {
		counts = val.([]models.UnreadCount)
	}
	return counts, args.Error(1)
}

var _ repositories.MessageRepository = (*MockMessageRepository)(nil)

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	args := m.Called(ctx, n)
	var created *models.Notification
	if val := args.Get(0); val != nil {
		created = val.(*models.Notification)
	}
	return created, args.Error(1)
}

func (m *MockNotificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

var _ repositories.NotificationRepository = (*MockNotificationRepository)(nil)

type MockTripBitRepository struct {
	mock.Mock
}

func (m *MockTripBitRepository) List(ctx context.Context, tripID uuid.UUID) ([]models.TripBit, error) {
	args := m.Called(ctx, tripID)
	var bits []models.TripBit
	if val := args.Get(0); val != nil {
		bits = val.([]models.TripBit)
	}
	return bits, args.Error(1)
}

func (m *MockTripBitRepository) Create(ctx context.Context, bit *models.TripBit) (*models.TripBit, error) {
	args := m.Called(ctx, bit)
	var b *models.TripBit
	if val := args.Get(0); val != nil {
		b = val.(*models.TripBit)
	}
	return b, args.Error(1)
}

func (m *MockTripBitRepository) Delete(ctx context.Context, tripID, bitID uuid.UUID) error {
	return m.Called(ctx, tripID, bitID).Error(0)
}

var _ repositories.TripBitRepository = (*MockTripBitRepository)(nil)

type MockWanderlistRepository struct {
	mock.Mock
}

func (m *MockWanderlistRepository) List(ctx context.Context, userID uuid.UUID) ([]models.WanderlistItem, error) {
	args := m.Called(ctx, userID)
	var items []models.WanderlistItem
	if val := args.Get(0); val != nil {
		items = val.([]models.WanderlistItem)
	}
	return items, args.Error(1)
}

func (m *MockWanderlistRepository) Create(ctx context.Context, item *models.WanderlistItem) (*models.WanderlistItem, error) {
	args := m.Called(ctx, item)
	var created *models.WanderlistItem
	if val := args.Get(0); val != nil {
		created = val.(*models.WanderlistItem)
	}
	return created, args.Error(1)
}

func (m *MockWanderlistRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

var _ repositories.WanderlistRepository = (*MockWanderlistRepository)(nil)

type MockRecommendationRepository struct {
	mock.Mock
}

func (m *MockRecommendationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.SharedRecommendation, error) {
	args := m.Called(ctx, userID)
	var recs []models.SharedRecommendation
	if val := args.Get(0); val != nil {
		recs = val.([]models.SharedRecommendation)
	}
	return recs, args.Error(1)
}

func (m *MockRecommendationRepository) ListForTrip(ctx context.Context, tripID uuid.UUID) ([]models.SharedRecommendation, error) {
	args := m.Called(ctx, tripID)
	var recs []models.SharedRecommendation
	if val := args.Get(0); val != nil {
		recs = val.([]models.SharedRecommendation)
	}
	return recs, args.Error(1)
}

func (m *MockRecommendationRepository) Create(ctx context.Context, rec *models.SharedRecommendation) (*models.SharedRecommendation, error) {
	args := m.Called(ctx, rec)
	var created *models.SharedRecommendation
	if val := args.Get(0); val != nil {
		created = val.(*models.SharedRecommendation)
	}
	return created, args.Error(1)
}

func (m *MockRecommendationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

var _ repositories.RecommendationRepository = (*MockRecommendationRepository)(nil)

// MockPublisher mocks RabbitMQ publisher behavior for events and telemetry.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ rabbitmq.Publisher = (*MockPublisher)(nil)
