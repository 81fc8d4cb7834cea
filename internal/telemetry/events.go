package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys on the events exchange.
const (
	EventFriendshipRequested = "friendship.requested"
	EventFriendshipAccepted  = "friendship.accepted"
	EventParticipantInvited  = "trip.participant.invited"
	EventParticipantJoined   = "trip.participant.joined"
	EventMessageCreated      = "trip.message.created"
)

type FriendshipEvent struct {
	FriendshipID uuid.UUID `json:"friendship_id"`
	RequesterID  uuid.UUID `json:"requester_id"`
	AddresseeID  uuid.UUID `json:"addressee_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type ParticipantEvent struct {
	TripID     uuid.UUID  `json:"trip_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	UserID     uuid.UUID  `json:"user_id"`
	ActorID    uuid.UUID  `json:"actor_id"`
	InviteID   *uuid.UUID `json:"invite_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

type MessageEvent struct {
	MessageID  uuid.UUID   `json:"message_id"`
	TripID     uuid.UUID   `json:"trip_id"`
	SenderID   uuid.UUID   `json:"sender_id"`
	Recipients []uuid.UUID `json:"recipients"`
	OccurredAt time.Time   `json:"occurred_at"`
}
