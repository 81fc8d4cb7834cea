package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"roamwyth/internal/models"
	"roamwyth/internal/repositories"
)

// memStore is an in-memory stand-in for the trip, invite, friendship and
// profile tables.
// A single mutex plays the role of the invite row lock.
type memStore struct {
	mu           sync.Mutex
	profiles     map[uuid.UUID]models.Profile
	trips        map[uuid.UUID]models.Trip
	locations    []models.TripLocation
	participants []models.TripParticipant
	invites      map[uuid.UUID]models.InviteLink
	friendships  map[uuid.UUID]models.Friendship
	writes       int
}

func newMemStore() *memStore {
	return &memStore{
		profiles:    map[uuid.UUID]models.Profile{},
		trips:       map[uuid.UUID]models.Trip{},
		invites:     map[uuid.UUID]models.InviteLink{},
		friendships: map[uuid.UUID]models.Friendship{},
	}
}

func (s *memStore) addProfile(username string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.profiles[id] = models.Profile{ID: id, Username: username, Plan: models.PlanFree}
	return id
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type memTrips struct{ *memStore }

func (r memTrips) Create(ctx context.Context, trip *models.Trip, locations []models.TripLocation) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	created := *trip
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.trips[created.ID] = created
	created.Locations = []models.TripLocation{}
	for i, l := range locations {
		l.ID = uuid.New()
		l.TripID = created.ID
		l.Position = i
		r.locations = append(r.locations, l)
		created.Locations = append(created.Locations, l)
	}
	created.Participants = []models.TripParticipant{}
	return &created, nil
}

func (r memTrips) GetByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	t.Locations = []models.TripLocation{}
	for _, l := range r.locations {
		if l.TripID == id {
			t.Locations = append(t.Locations, l)
		}
	}
	t.Participants = []models.TripParticipant{}
	for _, p := range r.participants {
		if p.TripID == id {
			t.Participants = append(t.Participants, p)
		}
	}
	return &t, nil
}

func (r memTrips) Update(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trips[trip.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	r.writes++
	updated := *trip
	updated.Locations, updated.Participants = nil, nil
	r.trips[trip.ID] = updated
	return &updated, nil
}

func (r memTrips) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trips[id]; !ok {
		return sql.ErrNoRows
	}
	r.writes++
	delete(r.trips, id)
	return nil
}

func (r memTrips) ListRoster(ctx context.Context, userID uuid.UUID) (*repositories.RosterRows, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := &repositories.RosterRows{}
	ids := map[uuid.UUID]bool{}
	for _, t := range r.trips {
		if t.OwnerID == userID {
			ids[t.ID] = true
		}
	}
	for _, p := range r.participants {
		if p.UserID == userID && p.Status == models.ParticipantAccepted {
			ids[p.TripID] = true
		}
	}
	for id := range ids {
		rows.Trips = append(rows.Trips, r.trips[id])
	}
	for _, p := range r.participants {
		if ids[p.TripID] {
			rows.Participants = append(rows.Participants, p)
		}
	}
	for _, l := range r.locations {
		if ids[l.TripID] {
			rows.Locations = append(rows.Locations, l)
		}
	}
	return rows, nil
}

func (r memTrips) AddLocation(ctx context.Context, loc *models.TripLocation) (*models.TripLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	l := *loc
	l.ID = uuid.New()
	r.locations = append(r.locations, l)
	return &l, nil
}

func (r memTrips) DeleteLocation(ctx context.Context, tripID, locationID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.locations {
		if l.TripID == tripID && l.ID == locationID {
			r.writes++
			r.locations = append(r.locations[:i], r.locations[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r memTrips) GetParticipant(ctx context.Context, tripID, userID uuid.UUID) (*models.TripParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.participantIndex(tripID, userID); i >= 0 {
		p := r.participants[i]
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (r memTrips) InviteParticipant(ctx context.Context, tripID, userID, invitedBy uuid.UUID) (*models.TripParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.participantIndex(tripID, userID); i >= 0 {
		if r.participants[i].Status != models.ParticipantDeclined {
			return nil, repositories.ErrParticipantExists
		}
		r.writes++
		r.participants[i].Status = models.ParticipantInvited
		r.participants[i].InvitedBy = &invitedBy
		p := r.participants[i]
		return &p, nil
	}
	r.writes++
	p := models.TripParticipant{ID: uuid.New(), TripID: tripID, UserID: userID, Role: models.RoleMember,
		Status: models.ParticipantInvited, InvitedBy: &invitedBy, CreatedAt: time.Now()}
	r.participants = append(r.participants, p)
	return &p, nil
}

func (r memTrips) RespondToInvite(ctx context.Context, tripID, userID uuid.UUID, accept bool) (*models.TripParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.participantIndex(tripID, userID)
	if i < 0 || (r.participants[i].Status != models.ParticipantInvited && r.participants[i].Status != models.ParticipantPending) {
		return nil, sql.ErrNoRows
	}
	r.writes++
	if accept {
		now := time.Now()
		r.participants[i].Status = models.ParticipantAccepted
		r.participants[i].JoinedAt = &now
	} else {
		r.participants[i].Status = models.ParticipantDeclined
	}
	p := r.participants[i]
	return &p, nil
}

func (r memTrips) RemoveParticipant(ctx context.Context, tripID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.participantIndex(tripID, userID)
	if i < 0 {
		return sql.ErrNoRows
	}
	r.writes++
	r.participants = append(r.participants[:i], r.participants[i+1:]...)
	return nil
}

func (r memTrips) MemberIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []uuid.UUID{r.trips[tripID].OwnerID}
	for _, p := range r.participants {
		if p.TripID == tripID && p.Status == models.ParticipantAccepted {
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}

func (s *memStore) participantIndex(tripID, userID uuid.UUID) int {
	for i, p := range s.participants {
		if p.TripID == tripID && p.UserID == userID {
			return i
		}
	}
	return -1
}

type memInvites struct{ *memStore }

func (r memInvites) Create(ctx context.Context, link *models.InviteLink) (*models.InviteLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.invites {
		if l.Code == link.Code {
			return nil, repositories.ErrDuplicate
		}
	}
	r.writes++
	created := *link
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	r.invites[created.ID] = created
	return &created, nil
}

func (r memInvites) GetByCode(ctx context.Context, code string) (*models.InviteLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.invites {
		if l.Code == code {
			return &l, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memInvites) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.InviteLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	links := []models.InviteLink{}
	for _, l := range r.invites {
		if l.TripID == tripID {
			links = append(links, l)
		}
	}
	return links, nil
}

func (r memInvites) Delete(ctx context.Context, tripID, inviteID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.invites[inviteID]; !ok || l.TripID != tripID {
		return sql.ErrNoRows
	}
	r.writes++
	delete(r.invites, inviteID)
	return nil
}

func (r memInvites) Accept(ctx context.Context, inviteID, userID uuid.UUID, now time.Time) (*repositories.AcceptOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.invites[inviteID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if link.Expired(now) {
		return nil, repositories.ErrInviteExpired
	}
	i := r.participantIndex(link.TripID, userID)
	if i >= 0 && r.participants[i].Status == models.ParticipantAccepted {
		return &repositories.AcceptOutcome{Participant: r.participants[i], UsageCount: link.UsageCount}, nil
	}
	if link.Exhausted() {
		return nil, repositories.ErrInviteExhausted
	}

	r.writes++
	if i >= 0 {
		r.participants[i].Status = models.ParticipantAccepted
		r.participants[i].JoinedAt = &now
	} else {
		creator := link.CreatedBy
		r.participants = append(r.participants, models.TripParticipant{
			ID: uuid.New(), TripID: link.TripID, UserID: userID, Role: models.RoleMember,
			Status: models.ParticipantAccepted, InvitedBy: &creator, JoinedAt: &now, CreatedAt: now,
		})
		i = len(r.participants) - 1
	}
	link.UsageCount++
	r.invites[inviteID] = link
	return &repositories.AcceptOutcome{Participant: r.participants[i], Joined: true, UsageCount: link.UsageCount}, nil
}

// memFriends keys rows by the unordered pair, like friendships_pair_idx.
type memFriends struct{ *memStore }

func (r memFriends) pairRow(a, b uuid.UUID) (models.Friendship, bool) {
	for _, f := range r.friendships {
		if f.Involves(a) && f.Involves(b) {
			return f, true
		}
	}
	return models.Friendship{}, false
}

func (r memFriends) Request(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	f, exists := r.pairRow(requesterID, addresseeID)
	switch {
	case !exists:
		f = models.Friendship{ID: uuid.New(), CreatedAt: now}
	case f.Status != models.FriendshipDeclined:
		return nil, repositories.ErrFriendshipExists
	}
	f.RequesterID, f.AddresseeID = requesterID, addresseeID
	f.Status = models.FriendshipPending
	f.UpdatedAt = now
	r.friendships[f.ID] = f
	r.writes++
	return &f, nil
}

func (r memFriends) GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.friendships[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &f, nil
}

func (r memFriends) Respond(ctx context.Context, id, userID uuid.UUID, status models.FriendshipStatus) (*models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.friendships[id]
	switch {
	case !ok:
		return nil, sql.ErrNoRows
	case f.AddresseeID != userID:
		return nil, repositories.ErrRequestForbidden
	case f.Status != models.FriendshipPending:
		return nil, repositories.ErrRequestNotPending
	}
	f.Status = status
	f.UpdatedAt = time.Now()
	r.friendships[id] = f
	r.writes++
	return &f, nil
}

func (r memFriends) Delete(ctx context.Context, id, userID uuid.UUID) (*models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.friendships[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if !f.Involves(userID) {
		return nil, repositories.ErrRequestForbidden
	}
	delete(r.friendships, id)
	r.writes++
	return &f, nil
}

func (r memFriends) ListPending(ctx context.Context, userID uuid.UUID) ([]models.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := []models.Friendship{}
	for _, f := range r.friendships {
		if f.Involves(userID) && f.Status == models.FriendshipPending {
			rows = append(rows, f)
		}
	}
	return rows, nil
}

func (r memFriends) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []uuid.UUID{}
	for _, f := range r.friendships {
		if f.Involves(userID) && f.Status == models.FriendshipAccepted {
			ids = append(ids, f.Other(userID))
		}
	}
	return ids, nil
}

func (r memFriends) AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.pairRow(userID, otherID)
	return ok && f.Status == models.FriendshipAccepted, nil
}

func (r memFriends) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.friendships)
}

type memProfiles struct{ *memStore }

func (r memProfiles) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (r memProfiles) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Profile{}
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProfiles) Search(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	return []models.Profile{}, nil
}

func (r memProfiles) GetAvatarURL(ctx context.Context, id uuid.UUID) (string, error) {
	return "", nil
}

func (r memProfiles) SetAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return nil
}

func (r memProfiles) ClearAvatarURL(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (r memProfiles) SetPlan(ctx context.Context, id uuid.UUID, plan models.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Plan = plan
	r.profiles[id] = p
	return nil
}

// recordingPublisher captures published routing keys.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == key {
			n++
		}
	}
	return n
}
