package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TripID    uuid.UUID `db:"trip_id" json:"trip_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UnreadCount is the number of messages in a trip the user has not read yet.
type UnreadCount struct {
	TripID uuid.UUID `db:"trip_id" json:"trip_id"`
	Count  int       `db:"unread" json:"unread"`
}
