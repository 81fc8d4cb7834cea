package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "friend_request"
	NotificationFriendAccepted NotificationType = "friend_accepted"
	NotificationTripInvite     NotificationType = "trip_invite"
	NotificationTripJoined     NotificationType = "trip_joined"
	NotificationTripMessage    NotificationType = "trip_message"
)

type Notification struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	UserID       uuid.UUID        `db:"user_id" json:"user_id"`
	Type         NotificationType `db:"type" json:"type"`
	FromUserID   *uuid.UUID       `db:"from_user_id" json:"from_user_id,omitempty"`
	TripID       *uuid.UUID       `db:"trip_id" json:"trip_id,omitempty"`
	FriendshipID *uuid.UUID       `db:"friendship_id" json:"friendship_id,omitempty"`
	Read         bool             `db:"read" json:"read"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}
