package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"roamwyth/internal/models"
	"roamwyth/internal/rabbitmq"
	"roamwyth/internal/repositories"
	"roamwyth/internal/telemetry"
)

type FriendService struct {
	friends   repositories.FriendRepository
	profiles  repositories.ProfileRepository
	publisher rabbitmq.Publisher
	now       func() time.Time
}

func NewFriendService(friends repositories.FriendRepository, profiles repositories.ProfileRepository, publisher rabbitmq.Publisher) *FriendService {
	return &FriendService{
		friends:   friends,
		profiles:  profiles,
		publisher: publisher,
		now:       time.Now,
	}
}

// Request sends a friend request. A declined row between the pair is reused
// and flipped to the new direction; pending or accepted rows conflict.
func (s *FriendService) Request(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.Friendship, error) {
	if addresseeID == uuid.Nil {
		return nil, newError(ErrBadRequest, "addressee_id is required")
	}
	if requesterID == addresseeID {
		return nil, newError(ErrBadRequest, "cannot send a friend request to yourself")
	}
	if _, err := s.profiles.GetByID(ctx, addresseeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("load addressee: %w", err)
	}

	f, err := s.friends.Request(ctx, requesterID, addresseeID)
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipExists) {
			return nil, newError(ErrConflict, "a friend request or friendship already exists")
		}
		return nil, err
	}

	publishEvent(ctx, s.publisher, telemetry.EventFriendshipRequested, friendshipEvent(f, s.now()))
	return f, nil
}

func (s *FriendService) Respond(ctx context.Context, friendshipID, userID uuid.UUID, accept bool) (*models.Friendship, error) {
	status := models.FriendshipDeclined
	if accept {
		status = models.FriendshipAccepted
	}

	f, err := s.friends.Respond(ctx, friendshipID, userID, status)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, newError(ErrNotFound, "friend request not found")
		case errors.Is(err, repositories.ErrRequestForbidden):
			return nil, newError(ErrForbidden, "only the recipient can answer this request")
		case errors.Is(err, repositories.ErrRequestNotPending):
			return nil, newError(ErrConflict, "friend request is no longer pending")
		}
		return nil, err
	}

	if accept {
		publishEvent(ctx, s.publisher, telemetry.EventFriendshipAccepted, friendshipEvent(f, s.now()))
	}
	return f, nil
}

// Remove deletes the row outright. Either side may remove it.
func (s *FriendService) Remove(ctx context.Context, friendshipID, userID uuid.UUID) (*models.Friendship, error) {
	f, err := s.friends.Delete(ctx, friendshipID, userID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, newError(ErrNotFound, "friendship not found")
		case errors.Is(err, repositories.ErrRequestForbidden):
			return nil, newError(ErrForbidden, "not part of this friendship")
		}
		return nil, err
	}
	return f, nil
}

type FriendRequest struct {
	models.Friendship
	User *models.Profile `json:"user,omitempty"`
}

type FriendRequests struct {
	Incoming []FriendRequest `json:"incoming"`
	Outgoing []FriendRequest `json:"outgoing"`
}

func (s *FriendService) Requests(ctx context.Context, userID uuid.UUID) (*FriendRequests, error) {
	rows, err := s.friends.ListPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	incoming, outgoing := PartitionRequests(userID, rows)

	others := make([]uuid.UUID, 0, len(rows))
	for _, f := range rows {
		others = append(others, f.Other(userID))
	}
	profiles, err := s.profilesByID(ctx, others)
	if err != nil {
		return nil, err
	}

	attach := func(list []models.Friendship) []FriendRequest {
		out := make([]FriendRequest, 0, len(list))
		for _, f := range list {
			req := FriendRequest{Friendship: f}
			if p, ok := profiles[f.Other(userID)]; ok {
				req.User = &p
			}
			out = append(out, req)
		}
		return out
	}
	return &FriendRequests{Incoming: attach(incoming), Outgoing: attach(outgoing)}, nil
}

// PartitionRequests splits pending rows into those addressed to userID and
// those userID sent. Non-pending rows and rows not involving userID are
// dropped, so an id never lands in both lists.
func PartitionRequests(userID uuid.UUID, rows []models.Friendship) (incoming, outgoing []models.Friendship) {
	incoming = []models.Friendship{}
	outgoing = []models.Friendship{}
	for _, f := range rows {
		if f.Status != models.FriendshipPending {
			continue
		}
		switch userID {
		case f.AddresseeID:
			incoming = append(incoming, f)
		case f.RequesterID:
			outgoing = append(outgoing, f)
		}
	}
	return incoming, outgoing
}

func (s *FriendService) Friends(ctx context.Context, userID uuid.UUID) ([]models.Profile, error) {
	ids, err := s.friends.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}
	return s.profiles.GetByIDs(ctx, ids)
}

func (s *FriendService) AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	return s.friends.AreFriends(ctx, userID, otherID)
}

func (s *FriendService) profilesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Profile, error) {
	out := make(map[uuid.UUID]models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	profiles, err := s.profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

func friendshipEvent(f *models.Friendship, now time.Time) telemetry.FriendshipEvent {
	return telemetry.FriendshipEvent{
		FriendshipID: f.ID,
		RequesterID:  f.RequesterID,
		AddresseeID:  f.AddresseeID,
		OccurredAt:   now.UTC(),
	}
}
